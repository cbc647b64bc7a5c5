// Package tags maps watch statuses and tag names to canonical names and colors
// for the anitrack tagging system.
package tags

import "math/rand"

// Canonical status names. Every imported entry resolves to exactly one of these.
const (
	StatusWatching    = "Watching"
	StatusCompleted   = "Completed"
	StatusOnHold      = "On-Hold"
	StatusDropped     = "Dropped"
	StatusPlanToWatch = "Plan to Watch"
)

// statusMap maps the MAL export vocabulary (including known variations) to
// canonical status names.
var statusMap = map[string]string{
	StatusWatching:    StatusWatching,
	StatusCompleted:   StatusCompleted,
	StatusOnHold:      StatusOnHold,
	StatusDropped:     StatusDropped,
	StatusPlanToWatch: StatusPlanToWatch,
	// Handle variations
	"Currently Watching": StatusWatching,
	"PlanToWatch":        StatusPlanToWatch,
	"OnHold":             StatusOnHold,
}

// CanonicalStatus maps a raw status label from the export to a canonical
// status name. Unrecognized labels fall back to "Plan to Watch".
func CanonicalStatus(label string) string {
	if name, ok := statusMap[label]; ok {
		return name
	}
	return StatusPlanToWatch
}

// StatusNames returns all canonical status names in display order.
func StatusNames() []string {
	return []string{StatusWatching, StatusCompleted, StatusOnHold, StatusDropped, StatusPlanToWatch}
}

// ColorKey identifies an entry in the color map. Tags store the key rather
// than a hex value so the palette can change without touching the database.
type ColorKey string

const (
	KeyDefault ColorKey = "DEFAULT"

	// Status tags
	KeyWatching    ColorKey = "Watching"
	KeyCompleted   ColorKey = "Completed"
	KeyOnHold      ColorKey = "OnHold"
	KeyDropped     ColorKey = "Dropped"
	KeyPlanToWatch ColorKey = "PlanToWatch"

	// Studio tags all share one color.
	KeyStudio ColorKey = "Studio"
)

// colorMap maps color keys to hex values. All colors are designed for white text.
var colorMap = map[ColorKey]string{
	KeyDefault: "#4338ca", // Indigo 700

	// Status tags
	KeyWatching:    "#1d4ed8", // Blue 700
	KeyCompleted:   "#15803d", // Green 700
	KeyOnHold:      "#b45309", // Amber 700
	KeyDropped:     "#b91c1c", // Red 700
	KeyPlanToWatch: "#334155", // Slate 700

	// Type tags
	"TV":      "#0369a1", // Sky 700
	"Movie":   "#6d28d9", // Violet 700
	"OVA":     "#be185d", // Pink 700
	"ONA":     "#0f766e", // Teal 700
	"Special": "#c2410c", // Orange 700
	"Music":   "#047857", // Emerald 700

	// Genre tags
	"Action":       "#b91c1c", // Red 700
	"Adventure":    "#15803d", // Green 700
	"AwardWinning": "#a16207", // Yellow 700
	"Comedy":       "#c2410c", // Orange 700
	"Drama":        "#6d28d9", // Violet 700
	"Ecchi":        "#be185d", // Pink 700
	"Erotica":      "#9f1239", // Rose 800
	"Fantasy":      "#7e22ce", // Purple 700
	"GirlsLove":    "#db2777", // Pink 600
	"Gourmet":      "#4d7c0f", // Lime 700
	"Horror":       "#1f2937", // Gray 800
	"Mystery":      "#4338ca", // Indigo 700
	"Romance":      "#e11d48", // Rose 600
	"SciFi":        "#0369a1", // Sky 700
	"SliceOfLife":  "#047857", // Emerald 700
	"Sports":       "#1d4ed8", // Blue 700
	"Supernatural": "#5b21b6", // Violet 800
	"Suspense":     "#334155", // Slate 700

	KeyStudio: "#7e22ce", // Purple 700

	// Custom colors for user-created tags
	"Custom1":  "#b91c1c", // Red 700
	"Custom2":  "#c2410c", // Orange 700
	"Custom3":  "#a16207", // Yellow 700
	"Custom4":  "#15803d", // Green 700
	"Custom5":  "#0f766e", // Teal 700
	"Custom6":  "#0369a1", // Sky 700
	"Custom7":  "#1d4ed8", // Blue 700
	"Custom8":  "#6d28d9", // Violet 700
	"Custom9":  "#7e22ce", // Purple 700
	"Custom10": "#be185d", // Pink 700
}

// customKeys are the keys eligible for random assignment to user-created tags.
var customKeys = []ColorKey{
	"Custom1", "Custom2", "Custom3", "Custom4", "Custom5",
	"Custom6", "Custom7", "Custom8", "Custom9", "Custom10",
}

// nameToKey maps known tag names to their deterministic color keys.
var nameToKey = map[string]ColorKey{
	// Status
	StatusWatching:    KeyWatching,
	StatusCompleted:   KeyCompleted,
	StatusOnHold:      KeyOnHold,
	StatusDropped:     KeyDropped,
	StatusPlanToWatch: KeyPlanToWatch,
	// Type
	"TV":      "TV",
	"Movie":   "Movie",
	"OVA":     "OVA",
	"ONA":     "ONA",
	"Special": "Special",
	"Music":   "Music",
	// Genre
	"Action":        "Action",
	"Adventure":     "Adventure",
	"Award Winning": "AwardWinning",
	"Comedy":        "Comedy",
	"Drama":         "Drama",
	"Ecchi":         "Ecchi",
	"Erotica":       "Erotica",
	"Fantasy":       "Fantasy",
	"Girls Love":    "GirlsLove",
	"Gourmet":       "Gourmet",
	"Horror":        "Horror",
	"Mystery":       "Mystery",
	"Romance":       "Romance",
	"Sci-Fi":        "SciFi",
	"Slice of Life": "SliceOfLife",
	"Sports":        "Sports",
	"Supernatural":  "Supernatural",
	"Suspense":      "Suspense",
}

// ColorKeyFor maps a tag name to its deterministic color key. Studios all use
// the shared studio color. Unknown names get the default key.
func ColorKeyFor(name string, isStudio bool) ColorKey {
	if isStudio {
		return KeyStudio
	}
	if key, ok := nameToKey[name]; ok {
		return key
	}
	return KeyDefault
}

// RandomCustomKey picks a color key for a user-created tag from the custom
// sub-palette. The rand source is injected so callers can seed it for
// reproducible results.
func RandomCustomKey(rng *rand.Rand) ColorKey {
	return customKeys[rng.Intn(len(customKeys))]
}

// Color returns the hex value for a color key, falling back to the default
// color for unknown keys.
func Color(key string) string {
	if hex, ok := colorMap[ColorKey(key)]; ok {
		return hex
	}
	return colorMap[KeyDefault]
}
