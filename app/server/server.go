package server

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"policyassist/app/api"
	"policyassist/app/middleware"
	"policyassist/diff"
	"policyassist/loader"
	"policyassist/model"
	"policyassist/rag"
	"policyassist/sections"
	"policyassist/store"
	"policyassist/types"

	"github.com/gofiber/fiber/v2"
)

const (
	serviceName    = "PolicyAssist"
	serviceVersion = "1.0.0"
)

var config = fiber.Config{
	ErrorHandler: api.ErrorHandler,
	BodyLimit:    50 * 1024 * 1024,
}

type Server struct {
	listenAddr string
	logger     *slog.Logger
}

func NewServer(addr string) *Server {
	return &Server{
		listenAddr: addr,
		logger:     slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()
	cfg := ConfigFromEnv()

	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
	pool, err := store.NewPostgresStore(ctx, connStr)
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		log.Fatal("error to create uploads directory", err)
		return
	}

	sectionCache, err := sections.NewCache(cfg.SectionsDir)
	if err != nil {
		log.Fatal("error to create sections cache", err)
		return
	}

	var (
		embedder  = model.NewOllamaEmbedder()
		generator = model.NewOllamaGenerator()
		docLoader = loader.New(cfg.ConvertURL)
		chunker   = loader.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
		answerer  = rag.NewAnswerer(pool, embedder, generator)
		engine    = diff.NewEngine(pool, embedder)

		app             = fiber.New(config)
		checkHandler    = api.NewCheckHandler(serviceName, serviceVersion)
		requestHandler  = api.NewRequestHandler(answerer)
		uploadHandler   = api.NewUploadHandler(cfg, docLoader, chunker, embedder, generator, pool, sectionCache)
		sectionsHandler = api.NewSectionsHandler(sectionCache)
		compareHandler  = api.NewCompareHandler(engine)

		check = app.Group("/check")
		apiv1 = app.Group("/api/v1")
	)

	app.Use(middleware.PlugStatic("/static"))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": serviceName, "version": serviceVersion, "health": "/check/healthy"})
	})

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/upload", uploadHandler.HandleUpload)
	apiv1.Post("/ask", requestHandler.HandleAsk)
	apiv1.Post("/scenario", requestHandler.HandleScenario)
	apiv1.Post("/summarize", requestHandler.HandleSummarize)
	apiv1.Get("/sections", sectionsHandler.HandleList)
	apiv1.Post("/compare", compareHandler.HandleCompare)

	if err := app.Listen(s.listenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

// ConfigFromEnv collects the document-pipeline settings. Chunk size and
// overlap fall back to the loader defaults when unset.
func ConfigFromEnv() types.Config {
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	chunkSize, _ := strconv.Atoi(os.Getenv("CHUNK_SIZE"))
	chunkOverlap := loader.DefaultChunkOverlap
	if v, err := strconv.Atoi(os.Getenv("CHUNK_OVERLAP")); err == nil {
		chunkOverlap = v
	}

	return types.Config{
		ServerAddr:   os.Getenv("SERVER_ADDR"),
		UploadsDir:   filepath.Join(dataDir, "uploads"),
		SectionsDir:  filepath.Join(dataDir, "sections"),
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		ConvertURL:   os.Getenv("CONVERT_URL"),
	}
}
