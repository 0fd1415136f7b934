// Package indexer walks a workspace and feeds eligible files into the
// index's BatchBuffer (spec §4.5), grounded on the teacher's
// embeddings.Indexer.ScanVault walk and its shouldSkipDir exclusion rule,
// generalized from a single hard-coded ".md" extension to the
// configuration-driven supported-extension set.
package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atomicobject/codesearch/pkg/config"
	"github.com/atomicobject/codesearch/pkg/extract"
	"github.com/atomicobject/codesearch/pkg/index"
)

// MaxFileSizeBytes is the default eligibility cap from spec §4.5.
const MaxFileSizeBytes = 10 * 1024 * 1024

// Result is the outcome of one Run, per spec §4.5.
type Result struct {
	IndexedCount int
	SkippedCount int
	ErrorCount   int
	Duration     time.Duration
	Success      bool
}

// Indexer walks a workspace depth-first, applies include/exclude rules,
// and submits eligible files as Documents into the BatchBuffer.
type Indexer struct {
	cfg       config.Config
	buffer    *index.BatchBuffer
	analyzer  *index.Analyzer
	extractor *extract.Extractor
}

// New builds an Indexer using cfg's supported extensions/excluded
// directories and buffer as the submission sink.
func New(cfg config.Config, buffer *index.BatchBuffer) *Indexer {
	return &Indexer{cfg: cfg, buffer: buffer, analyzer: index.NewAnalyzer(), extractor: extract.New()}
}

func (ix *Indexer) isExcludedDir(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") && lower != "." && lower != ".." {
		return true
	}
	for _, excluded := range ix.cfg.ExcludedDirectories {
		if strings.ToLower(excluded) == lower {
			return true
		}
	}
	return false
}

func (ix *Indexer) isSupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range ix.cfg.SupportedExtensions {
		if strings.ToLower(supported) == ext {
			return true
		}
	}
	return false
}

// Run walks workspacePath and indexes every eligible file, flushing the
// buffer at the end of the walk (spec §4.5).
func (ix *Indexer) Run(ctx context.Context, workspacePath string) (Result, error) {
	start := time.Now()
	result := Result{}

	err := filepath.WalkDir(workspacePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.SkippedCount++
			return nil // inaccessible entries are skipped, not fatal
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != workspacePath && ix.isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		doc, eligible, err := ix.buildDocument(workspacePath, path, d)
		if err != nil {
			result.ErrorCount++
			return nil
		}
		if !eligible {
			result.SkippedCount++
			return nil
		}

		if err := ix.buffer.Add(ctx, workspacePath, doc); err != nil {
			result.ErrorCount++
			return nil
		}
		result.IndexedCount++
		return nil
	})

	if err != nil {
		result.Duration = time.Since(start)
		result.Success = false
		return result, err
	}

	if flushErr := ix.buffer.Flush(ctx, workspacePath); flushErr != nil {
		result.Duration = time.Since(start)
		result.Success = false
		return result, flushErr
	}

	result.Duration = time.Since(start)
	result.Success = true
	return result, nil
}

// IndexFile builds and submits a Document for a single file, used by the
// ChangePipeline to apply a Created/Modified event without a full walk.
func (ix *Indexer) IndexFile(ctx context.Context, workspacePath string, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	doc, eligible, err := ix.buildDocumentFromInfo(workspacePath, path, info)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}
	if err := ix.buffer.Add(ctx, workspacePath, doc); err != nil {
		return err
	}
	return ix.buffer.Flush(ctx, workspacePath)
}

func (ix *Indexer) buildDocument(workspacePath, path string, d fs.DirEntry) (index.Document, bool, error) {
	info, err := d.Info()
	if err != nil {
		return index.Document{}, false, err
	}
	return ix.buildDocumentFromInfo(workspacePath, path, info)
}

func (ix *Indexer) buildDocumentFromInfo(workspacePath, path string, info fs.FileInfo) (index.Document, bool, error) {
	name := info.Name()
	if !ix.isSupportedExtension(name) {
		return index.Document{}, false, nil
	}
	if info.Size() > ix.maxFileSize() {
		return index.Document{}, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return index.Document{}, false, err
	}
	if !utf8.Valid(content) {
		return index.Document{}, false, nil
	}

	rel, err := filepath.Rel(workspacePath, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)

	doc := index.Document{
		Path:         path,
		RelativePath: rel,
		Filename:     name,
		Extension:    strings.ToLower(filepath.Ext(name)),
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Content:      string(content),
	}

	// TypeExtractor is invoked lazily during indexing (spec §2): every
	// eligible file is offered to it, and extensions it has no grammar for
	// (plain text, config, markup, ...) just come back with nothing to
	// attach rather than failing the whole document.
	if types, methods, extractErr := ix.extractor.Extract(name, doc.Content); extractErr == nil {
		doc.Types = types
		doc.Methods = methods
	}

	return doc, true, nil
}

func (ix *Indexer) maxFileSize() int64 {
	if ix.cfg.MaxFileSizeBytes > 0 {
		return ix.cfg.MaxFileSizeBytes
	}
	return MaxFileSizeBytes
}
