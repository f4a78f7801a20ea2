package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

var loadableExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// LoadDir walks dir, splits every readable text file into chunks and
// indexes them. Chunks whose content was already seen are skipped, so
// reloading the same corpus does not duplicate entries. Returns the
// number of chunks indexed.
func LoadDir(ctx context.Context, store Store, dir string, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[DOCSTORE] ", log.LstdFlags)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(1000),
		textsplitter.WithChunkOverlap(150),
	)

	seen := make(map[string]bool)
	var chunks []Chunk

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !loadableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		parts, err := splitter.SplitText(string(raw))
		if err != nil {
			return fmt.Errorf("split %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			sum := sha256.Sum256([]byte(part))
			id := hex.EncodeToString(sum[:])
			if seen[id] {
				continue
			}
			seen[id] = true
			chunks = append(chunks, Chunk{
				ID:   id,
				Text: part,
				Metadata: map[string]string{
					"source": rel,
					"chunk":  fmt.Sprintf("%d", i),
				},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		logger.Printf("no loadable documents under %s", dir)
		return 0, nil
	}
	if err := store.Add(ctx, chunks); err != nil {
		return 0, err
	}
	logger.Printf("indexed %d chunks from %s", len(chunks), dir)
	return len(chunks), nil
}
