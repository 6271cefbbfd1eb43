package sections

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"policyassist/types"
)

// Cache persists summarized sections as one JSON array per upload id.
// Files are write-once; listing merges every cached upload.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sections dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Save(secs []types.Section, fileID string) error {
	data, err := json.MarshalIndent(secs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	path := filepath.Join(c.dir, fileID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sections file: %w", err)
	}
	return nil
}

// LoadAll merges the cached sections of every upload. Unreadable or corrupt
// files are skipped, not fatal.
func (c *Cache) LoadAll() ([]types.Section, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []types.Section
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			log.Printf("[SECTIONS] skipping unreadable cache file %s: %v", name, err)
			continue
		}
		var secs []types.Section
		if err := json.Unmarshal(data, &secs); err != nil {
			log.Printf("[SECTIONS] skipping corrupt cache file %s: %v", name, err)
			continue
		}
		all = append(all, secs...)
	}
	return all, nil
}
