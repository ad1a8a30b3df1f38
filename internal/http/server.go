package http

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/config"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/media"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/services"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	fm, err := storage.NewFileManager(cfg.DataDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	openaiSvc := services.NewOpenAIService(cfg)
	storyboardSvc := services.NewStoryboardService()
	shareSvc := services.NewShareService(cfg)

	tool := media.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
	if err := tool.Check(); err != nil {
		log.Printf("warning: %v (renders will fail until it is installed)", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, fm, store, openaiSvc, storyboardSvc, shareSvc, tool)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
