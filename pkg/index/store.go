package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SegmentFileName is the SQLite database file backing one workspace's
// index, living directly inside that workspace's index directory next to
// the writer lock file.
const SegmentFileName = "segments.sqlite"

// SearchHit is one row returned by Store.Search.
type SearchHit struct {
	Path         string
	RelativePath string
	Filename     string
	Extension    string
	Size         int64
	LastModified time.Time
	Score        float64
}

// Stats summarizes one workspace's index, mirroring the fields spec §4.3's
// `statistics` operation requires.
type Stats struct {
	DocumentCount      int
	DeletedCount       int
	SizeOnDiskBytes    int64
	SegmentCount       int
	ByExtension        map[string]int
}

// Store is the durable, per-workspace segment storage behind one
// IndexHandle: a single SQLite database holding a plain metadata table
// (for fast stats/health/listing) and an FTS5 virtual table (for full-text
// search over tokenized content and path components). It is the SQLite
// analogue of the teacher's embeddings/sqlite.Store, generalized from
// vector similarity to inverted-index text search.
type Store struct {
	mu       sync.Mutex
	db       *sql.DB
	writeTx  *sql.Tx
	analyzer *Analyzer
}

// OpenStore opens (or creates) the SQLite-backed segment file at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("segment path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, analyzer: NewAnalyzer()}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS document_meta (
			path          TEXT PRIMARY KEY,
			relative_path TEXT NOT NULL,
			filename      TEXT NOT NULL,
			extension     TEXT NOT NULL,
			size          INTEGER NOT NULL,
			last_modified INTEGER NOT NULL,
			types_json    TEXT,
			methods_json  TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_document_meta_extension ON document_meta(extension);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			path UNINDEXED,
			content,
			path_component
		);`,
		`CREATE TABLE IF NOT EXISTS index_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			created_at INTEGER NOT NULL,
			last_commit INTEGER
		);`,
		`INSERT OR IGNORE INTO index_meta (id, created_at) VALUES (1, strftime('%s','now'));`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database. Any open write transaction is
// rolled back.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeTx != nil {
		_ = s.writeTx.Rollback()
		s.writeTx = nil
	}
	return s.db.Close()
}

func (s *Store) tx(ctx context.Context) (*sql.Tx, error) {
	if s.writeTx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		s.writeTx = tx
	}
	return s.writeTx, nil
}

// IndexDocuments performs delete-by-term then add for each document, per
// spec §4.3's `index_documents` operation. Not auto-committed: callers must
// call Commit to make the mutation visible to new readers.
func (s *Store) IndexDocuments(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.tx(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if err := s.deleteDocumentLocked(ctx, tx, doc.Path); err != nil {
			return err
		}
		if err := s.addDocumentLocked(ctx, tx, doc); err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocument removes a single document by its path, per spec §4.3's
// `delete_document` operation. Not auto-committed.
func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.tx(ctx)
	if err != nil {
		return err
	}
	return s.deleteDocumentLocked(ctx, tx, path)
}

func (s *Store) deleteDocumentLocked(ctx context.Context, tx *sql.Tx, path string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_meta WHERE path = ?`, path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE path = ?`, path); err != nil {
		return err
	}
	return nil
}

func (s *Store) addDocumentLocked(ctx context.Context, tx *sql.Tx, doc Document) error {
	typesJSON, err := json.Marshal(doc.Types)
	if err != nil {
		return err
	}
	methodsJSON, err := json.Marshal(doc.Methods)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_meta (path, relative_path, filename, extension, size, last_modified, types_json, methods_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Path, doc.RelativePath, doc.Filename, doc.Extension, doc.Size, doc.LastModified.Unix(), string(typesJSON), string(methodsJSON)); err != nil {
		return err
	}

	contentTokens := strings.Join(s.analyzer.Tokenize(doc.Content), " ")
	pathTokens := strings.Join(s.analyzer.TokenizePathComponents(doc.RelativePath), " ")

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents_fts (path, content, path_component) VALUES (?, ?, ?)
	`, doc.Path, contentTokens, pathTokens)
	return err
}

// Commit flushes pending mutations to disk and makes them visible to new
// readers (spec §4.3's `commit` operation). Must not run concurrently with
// itself for the same workspace; callers serialize through IndexHandle's
// mutex.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeTx == nil {
		return nil
	}
	if err := s.writeTx.Commit(); err != nil {
		s.writeTx = nil
		return err
	}
	s.writeTx = nil

	_, err := s.db.ExecContext(ctx, `UPDATE index_meta SET last_commit = strftime('%s','now') WHERE id = 1`)
	return err
}

// Search runs matchExpr, unchanged, as an FTS5 MATCH against the committed
// content, returning hits ordered by FTS5's bm25 relevance rank. The store
// does not tokenize matchExpr itself; it may contain FTS5 boolean syntax
// (AND/OR/NOT/parentheses), as produced by the search query layer's
// compiler.
func (s *Store) Search(ctx context.Context, matchExpr string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(matchExpr) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.path, m.relative_path, m.filename, m.extension, m.size, m.last_modified, bm25(documents_fts) AS rank
		FROM documents_fts
		JOIN document_meta m ON m.path = documents_fts.path
		WHERE documents_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, matchExpr, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var lastModified int64
		if err := rows.Scan(&h.Path, &h.RelativePath, &h.Filename, &h.Extension, &h.Size, &lastModified, &h.Score); err != nil {
			return nil, err
		}
		h.LastModified = time.Unix(lastModified, 0)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ContentTokens returns the space-joined tokens stored for path's content
// column, used by the search query layer's similarity query to derive a
// token-overlap MATCH expression from a reference document without a
// second copy of the tokenization policy.
func (s *Store) ContentTokens(ctx context.Context, path string) (string, error) {
	var tokens string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents_fts WHERE path = ?`, path).Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tokens, err
}

// Types returns the stored ExtractedType/ExtractedMethod slices for path,
// the TypeExtractor result IndexDocuments recorded for it at index time
// (spec §2's "invoked lazily during indexing"). Returns (nil, nil, nil)
// if path is not indexed.
func (s *Store) Types(ctx context.Context, path string) ([]ExtractedType, []ExtractedMethod, error) {
	var typesJSON, methodsJSON string
	err := s.db.QueryRowContext(ctx, `SELECT types_json, methods_json FROM document_meta WHERE path = ?`, path).Scan(&typesJSON, &methodsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var types []ExtractedType
	if typesJSON != "" {
		if err := json.Unmarshal([]byte(typesJSON), &types); err != nil {
			return nil, nil, err
		}
	}
	var methods []ExtractedMethod
	if methodsJSON != "" {
		if err := json.Unmarshal([]byte(methodsJSON), &methods); err != nil {
			return nil, nil, err
		}
	}
	return types, methods, nil
}

// Statistics returns live document count, size on disk, and per-extension
// distribution (spec §4.3's `statistics` operation). SizeOnDiskBytes is
// left zero here; the IndexStore manager fills it in from the directory
// size, since the store itself only knows about its own file handle.
func (s *Store) Statistics(ctx context.Context) (Stats, error) {
	stats := Stats{ByExtension: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_meta`).Scan(&stats.DocumentCount); err != nil {
		return stats, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT extension, COUNT(*) FROM document_meta GROUP BY extension`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var ext string
		var count int
		if err := rows.Scan(&ext, &count); err != nil {
			return stats, err
		}
		stats.ByExtension[ext] = count
	}
	return stats, rows.Err()
}

// Clear removes every document and commits, per spec §4.3's `clear`
// operation.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.writeTx != nil {
		_ = s.writeTx.Rollback()
		s.writeTx = nil
	}
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM document_meta`); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents_fts`); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE index_meta SET last_commit = strftime('%s','now') WHERE id = 1`)
	return err
}

// Validate runs a cheap consistency check used by Health: every FTS row
// must have a matching metadata row and vice versa. A mismatch suggests a
// partially-applied mutation (e.g. a crash mid-IndexDocuments before this
// store adopted the two-table design's symmetric delete).
func (s *Store) Validate(ctx context.Context) error {
	var metaCount, ftsCount int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_meta`).Scan(&metaCount); err != nil {
		return fmt.Errorf("read document_meta: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents_fts`).Scan(&ftsCount); err != nil {
		return fmt.Errorf("read documents_fts: %w", err)
	}
	if metaCount != ftsCount {
		return fmt.Errorf("document_meta has %d rows but documents_fts has %d", metaCount, ftsCount)
	}
	return nil
}
