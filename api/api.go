// Package api exposes the anitrack HTTP API.
package api

import (
	"fmt"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/anitrack/api/handler"
	"github.com/jon4hz/anitrack/config"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/engine"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
	db        *database.Client
}

func New(cfg *config.Config, e *engine.Engine, db *database.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		engine:    e,
		db:        db,
	}, nil
}

func (s *Server) setupRoutes() {
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))

	h := handler.New(s.engine, s.db)

	api := s.ginEngine.Group("/api")
	api.POST("/import", h.Import)
	api.POST("/fetch", h.Sweep)

	api.GET("/anime", h.ListAnime)
	api.GET("/anime/missing-data", h.MissingData)
	api.GET("/anime/:id", h.GetAnime)
	api.PUT("/anime/:id/tags", h.SaveTags)
	api.POST("/anime/:id/fetch", h.FetchAnime)

	api.GET("/tags", h.ListTags)
	api.DELETE("/tags/:id", h.DeleteTag)

	api.GET("/stats", h.Stats)
}

func (s *Server) Run() error {
	s.setupRoutes()

	return s.ginEngine.Run(s.cfg.Listen)
}
