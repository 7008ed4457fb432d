// Package filesystem loads support documents from a local directory
// and watches it for changes. It is the only document source the
// ingestion pipeline ships with; extracted text arrives as pages, with
// multi-page files delimited by explicit page markers.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/deskmate-labs/deskmate-cli/internal/core/domain"
	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// pageMarker delimits pages inside extracted text files, e.g. a PDF
// exported as "--- Page 3 ---" sections.
var pageMarker = regexp.MustCompile(`(?m)^--- Page (\d+) ---[^\S\n]*$`)

// loadableExtensions are the file types the loader accepts.
var loadableExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// Loader reads support documents from a directory tree.
type Loader struct {
	root string
}

// NewLoader creates a loader rooted at the given directory.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Root returns the directory the loader reads from.
func (l *Loader) Root() string {
	return l.root
}

// LoadAll walks the root directory and extracts pages from every
// loadable file, sorted by filename for deterministic ingestion order.
func (l *Loader) LoadAll(ctx context.Context) ([]domain.PageText, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if Loadable(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", l.root, err)
	}
	sort.Strings(paths)

	var pages []domain.PageText
	for _, path := range paths {
		filePages, err := l.LoadFile(path)
		if err != nil {
			// One unreadable file should not abort the whole ingest.
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		pages = append(pages, filePages...)
	}
	logger.Debug("Loaded %d pages from %d files under %s", len(pages), len(paths), l.root)
	return pages, nil
}

// LoadFile extracts the pages of a single document.
func (l *Loader) LoadFile(path string) ([]domain.PageText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return splitPages(filepath.Base(path), string(data)), nil
}

// Loadable reports whether the loader accepts the given file.
func Loadable(path string) bool {
	return loadableExtensions[strings.ToLower(filepath.Ext(path))]
}

// splitPages turns raw file text into pages. Files without page
// markers are a single page; marked files keep their declared page
// numbers so citations match the source document.
func splitPages(filename, text string) []domain.PageText {
	markers := pageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []domain.PageText{{Filename: filename, Page: 1, TotalPages: 1, Text: text}}
	}

	type segment struct {
		page int
		text string
	}
	var segments []segment

	if pre := text[:markers[0][0]]; strings.TrimSpace(pre) != "" {
		segments = append(segments, segment{page: 1, text: pre})
	}

	for i, m := range markers {
		page, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || page < 1 {
			continue
		}
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		body := text[m[1]:end]
		if strings.TrimSpace(body) == "" {
			continue
		}
		segments = append(segments, segment{page: page, text: body})
	}

	totalPages := 0
	for _, s := range segments {
		if s.page > totalPages {
			totalPages = s.page
		}
	}

	pages := make([]domain.PageText, 0, len(segments))
	for _, s := range segments {
		pages = append(pages, domain.PageText{
			Filename:   filename,
			Page:       s.page,
			TotalPages: totalPages,
			Text:       s.text,
		})
	}
	return pages
}
