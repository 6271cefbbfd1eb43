package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"policyassist/loader"
	"policyassist/model"
	"policyassist/sections"
	"policyassist/store"
	"policyassist/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadHandler ingests a document: load, chunk, embed, index, then
// best-effort table extraction and section detection.
type UploadHandler struct {
	cfg          types.Config
	loader       *loader.Loader
	chunker      *loader.Chunker
	embedder     model.Embedder
	generator    model.Generator
	store        store.VectorStorer
	sectionCache *sections.Cache
}

func NewUploadHandler(
	cfg types.Config,
	l *loader.Loader,
	chunker *loader.Chunker,
	embedder model.Embedder,
	generator model.Generator,
	s store.VectorStorer,
	cache *sections.Cache,
) *UploadHandler {
	return &UploadHandler{
		cfg:          cfg,
		loader:       l,
		chunker:      chunker,
		embedder:     embedder,
		generator:    generator,
		store:        s,
		sectionCache: cache,
	}
}

func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest("multipart field 'file' is required")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".pdf" && ext != ".txt" {
		return ErrUnsupportedMedia(ext)
	}

	// A custom collection isolates compare uploads from the shared Q&A
	// corpus.
	collection := c.Query("collection", types.DefaultCollection)

	fileID := uuid.NewString()
	path := filepath.Join(h.cfg.UploadsDir, fileID+ext)
	if err := c.SaveFile(fileHeader, path); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	log.Printf("[UPLOAD] file saved to: %s", path)

	result, err := h.Ingest(c.Context(), path, collection)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedType) {
			return ErrUnsupportedMedia(ext)
		}
		return err
	}

	result.FileID = fileID
	result.Filename = fileHeader.Filename
	return c.JSON(result)
}

// Ingest runs the full upload pipeline for a file on disk. The loader/cmd
// bulk tool calls this directly, bypassing multipart handling.
func (h *UploadHandler) Ingest(ctx context.Context, path, collection string) (*types.UploadResult, error) {
	doc, err := h.loader.Load(path)
	if err != nil {
		if errors.Is(err, loader.ErrEmptyDocument) {
			return nil, ErrBadRequest("document could not be parsed or is empty")
		}
		return nil, err
	}

	chunks := h.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return nil, ErrBadRequest("document could not be parsed or is empty")
	}

	if err := h.index(ctx, collection, chunks); err != nil {
		return nil, err
	}

	// Tables and sections are side computations for the shared collection
	// only. Their failure never fails the upload.
	tablesIngested := 0
	sectionsDetected := 0
	if collection == types.DefaultCollection {
		tablesIngested = h.ingestTables(ctx, collection, doc)
		sectionsDetected = h.detectSections(ctx, doc, loader.Stem(path))
	}

	return &types.UploadResult{
		Message:          "Document uploaded, indexed, and analyzed successfully.",
		ChunksIngested:   len(chunks),
		TablesIngested:   tablesIngested,
		SectionsDetected: sectionsDetected,
		Timestamp:        time.Now(),
	}, nil
}

func (h *UploadHandler) index(ctx context.Context, collection string, chunks []types.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if err := h.store.Upsert(ctx, collection, chunks, vectors); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

func (h *UploadHandler) ingestTables(ctx context.Context, collection string, doc *loader.Document) int {
	tables := loader.ExtractTables(doc)
	if len(tables) == 0 {
		return 0
	}
	if err := h.index(ctx, collection, tables); err != nil {
		log.Printf("[UPLOAD] table ingestion degraded: %v", err)
		return 0
	}
	return len(tables)
}

func (h *UploadHandler) detectSections(ctx context.Context, doc *loader.Document, fileID string) int {
	secs := sections.Detect(doc)
	if len(secs) == 0 {
		return 0
	}
	summarized := sections.Summarize(ctx, secs, h.generator)
	if len(summarized) == 0 {
		return 0
	}
	if err := h.sectionCache.Save(summarized, fileID); err != nil {
		log.Printf("[UPLOAD] section caching degraded: %v", err)
		return 0
	}
	return len(summarized)
}
