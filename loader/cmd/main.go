// Bulk ingest: walks SOURCE_DIR once and pushes every supported file through
// the same pipeline the upload endpoint uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"policyassist/app/api"
	"policyassist/app/server"
	"policyassist/loader"
	"policyassist/model"
	"policyassist/sections"
	"policyassist/store"
	"policyassist/types"

	"github.com/joho/godotenv"
)

func init() {
	mustLoadEnvVariables()
}

func main() {
	ctx := context.Background()
	cfg := server.ConfigFromEnv()

	port, _ := strconv.Atoi(os.Getenv("PG_PORT"))
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PG_HOST"), port, os.Getenv("PG_USER"), os.Getenv("PG_PASS"), os.Getenv("PG_DB_NAME"))
	pool, err := store.NewPostgresStore(ctx, connStr)
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}
	defer pool.Close()

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	sectionCache, err := sections.NewCache(cfg.SectionsDir)
	if err != nil {
		log.Fatal("error to create sections cache", err)
		return
	}

	handler := api.NewUploadHandler(
		cfg,
		loader.New(cfg.ConvertURL),
		loader.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		model.NewOllamaEmbedder(),
		model.NewOllamaGenerator(),
		pool,
		sectionCache,
	)

	sourceDir := os.Getenv("SOURCE_DIR")
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		log.Fatal("error to read source directory", err)
		return
	}

	ingested, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(sourceDir, entry.Name())

		result, err := handler.Ingest(ctx, path, types.DefaultCollection)
		if err != nil {
			if errors.Is(err, loader.ErrUnsupportedType) {
				log.Printf("skipping %s: unsupported type", entry.Name())
				skipped++
				continue
			}
			log.Printf("error ingesting %s: %v", entry.Name(), err)
			skipped++
			continue
		}

		log.Printf("ingested %s: %d chunks, %d tables, %d sections",
			entry.Name(), result.ChunksIngested, result.TablesIngested, result.SectionsDetected)
		ingested++
	}

	log.Printf("done: %d ingested, %d skipped", ingested, skipped)
}

func mustLoadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
}
