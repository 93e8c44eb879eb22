package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/biasprobe/internal/extract"
	"github.com/ppiankov/biasprobe/internal/worker"
)

// DefaultExtensions are the response file types ingested when none are configured
var DefaultExtensions = []string{".txt", ".md", ".html"}

// Scan walks dirs recursively and returns files with one of exts, sorted and deduplicated.
// Directories that do not exist are skipped.
func Scan(dirs []string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	wanted := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		wanted[e] = true
	}

	seen := make(map[string]bool)
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == dir && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !wanted[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Load reads paths with a bounded worker pool and decodes their text.
// Unreadable files are returned as skipped.
func Load(ctx context.Context, paths []string, workers int) ([]Candidate, []Skipped) {
	results := worker.ReadFiles(ctx, paths, workers)

	candidates := make([]Candidate, 0, len(results))
	var skipped []Skipped
	for _, r := range results {
		if r.Error != nil {
			skipped = append(skipped, Skipped{Path: r.Path, Reason: r.Error.Error(), Err: r.Error})
			continue
		}
		candidates = append(candidates, Candidate{Path: r.Path, Text: DecodeText(r.Path, r.Data)})
	}
	return candidates, skipped
}

// DecodeText drops invalid UTF-8 bytes and reduces HTML documents to their visible text
func DecodeText(path string, data []byte) string {
	text := strings.ToValidUTF8(string(data), "")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		visible, err := extract.VisibleText(text)
		if err == nil {
			return visible
		}
	}
	return text
}
