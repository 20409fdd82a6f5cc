package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/codec"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// FileName is the database file inside an index directory.
const FileName = "index.db"

// sqliteHeader is the magic string every SQLite 3 database file starts with.
var sqliteHeader = []byte("SQLite format 3\x00")

// Ensure Store implements the interface.
var _ driven.IndexStore = (*Store)(nil)

// Options configures how an index directory is opened.
type Options struct {
	// CreateIfMissing creates the directory and database when absent.
	CreateIfMissing bool
}

// Store is the SQLite-backed index store.
type Store struct {
	db   *sql.DB
	dir  string
	path string
}

// Open opens the index stored in dir.
// A missing index returns domain.ErrIndexNotFound unless opts.CreateIfMissing
// is set; a file that is not a valid index returns domain.ErrCorruptIndex.
func Open(ctx context.Context, dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: index path is empty", domain.ErrConfiguration)
	}
	dbPath := filepath.Join(dir, FileName)

	existed, err := checkFile(dbPath)
	if err != nil {
		return nil, err
	}
	if !existed {
		if !opts.CreateIfMissing {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dir)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		dir:  dir,
		path: dbPath,
	}

	if existed {
		if err := s.checkOwned(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		if existed {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptIndex, dbPath, err)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// checkFile reports whether path exists and, if it does, that it carries
// the SQLite header.
func checkFile(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return true, fmt.Errorf("%w: %s is not an index database", domain.ErrCorruptIndex, path)
	}
	return true, nil
}

// checkOwned refuses an existing database that holds tables but was never
// migrated by this store.
func (s *Store) checkOwned(ctx context.Context) error {
	var tables, tracked int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(name = 'schema_migrations'), 0)
		FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&tables, &tracked)
	if err != nil {
		return s.corrupt(ctx, "inspecting schema", err)
	}
	if tables > 0 && tracked == 0 {
		return fmt.Errorf("%w: %s is not an index database", domain.ErrCorruptIndex, s.path)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the index directory.
func (s *Store) Path() string {
	return s.dir
}

// migrate runs all pending migrations.
func (s *Store) migrate(ctx context.Context, fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Manifest ====================

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// readManifest returns the manifest row, or nil if the index is uninitialised.
func readManifest(ctx context.Context, q querier) (*domain.IndexManifest, error) {
	var m domain.IndexManifest
	var metric string
	err := q.QueryRowContext(ctx, `
		SELECT format_version, embedding_model, dimensions, metric, chunk_size, chunk_overlap,
			entry_count, checksum, created_at, updated_at
		FROM manifest WHERE id = 1
	`).Scan(&m.FormatVersion, &m.EmbeddingModel, &m.Dimensions, &metric, &m.ChunkSize,
		&m.ChunkOverlap, &m.Count, &m.Checksum, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Metric = domain.DistanceMetric(metric)
	return &m, nil
}

func writeManifest(ctx context.Context, tx *sql.Tx, m *domain.IndexManifest) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO manifest (id, format_version, embedding_model, dimensions, metric,
			chunk_size, chunk_overlap, entry_count, checksum, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			format_version = excluded.format_version,
			embedding_model = excluded.embedding_model,
			dimensions = excluded.dimensions,
			metric = excluded.metric,
			chunk_size = excluded.chunk_size,
			chunk_overlap = excluded.chunk_overlap,
			entry_count = excluded.entry_count,
			checksum = excluded.checksum,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, m.FormatVersion, m.EmbeddingModel, m.Dimensions, string(m.Metric), m.ChunkSize,
		m.ChunkOverlap, m.Count, m.Checksum, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ==================== IndexStore ====================

// Load reads and verifies the manifest and all entries.
// An uninitialised index returns a nil manifest and no entries.
func (s *Store) Load(ctx context.Context) (*domain.IndexManifest, []domain.IndexEntry, error) {
	m, err := readManifest(ctx, s.db)
	if err != nil {
		return nil, nil, s.corrupt(ctx, "reading manifest", err)
	}
	if m == nil {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
			return nil, nil, s.corrupt(ctx, "counting entries", err)
		}
		if n > 0 {
			return nil, nil, fmt.Errorf("%w: manifest missing but %d entries present", domain.ErrCorruptIndex, n)
		}
		return nil, nil, nil
	}
	if m.FormatVersion != domain.IndexFormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported format version %d", domain.ErrCorruptIndex, m.FormatVersion)
	}
	if m.Dimensions <= 0 || !m.Metric.IsValid() {
		return nil, nil, fmt.Errorf("%w: invalid manifest", domain.ErrCorruptIndex)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, document_id, position, content, vector, metadata
		FROM entries ORDER BY seq
	`)
	if err != nil {
		return nil, nil, s.corrupt(ctx, "querying entries", err)
	}
	defer rows.Close()

	entries := make([]domain.IndexEntry, 0, m.Count)
	sum := ""
	for rows.Next() {
		var e domain.IndexEntry
		var vec []byte
		var meta string
		if err := rows.Scan(&e.ChunkID, &e.DocumentID, &e.Position, &e.Content, &vec, &meta); err != nil {
			return nil, nil, s.corrupt(ctx, "scanning entry", err)
		}
		if e.Vector, err = codec.DecodeVector(vec); err != nil || len(e.Vector) != m.Dimensions {
			return nil, nil, fmt.Errorf("%w: entry %s has a malformed vector", domain.ErrCorruptIndex, e.ChunkID)
		}
		if e.Metadata, err = codec.DecodeMetadata([]byte(meta)); err != nil {
			return nil, nil, fmt.Errorf("%w: entry %s has malformed metadata", domain.ErrCorruptIndex, e.ChunkID)
		}
		sum = codec.Chain(sum, e, vec, []byte(meta))
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, s.corrupt(ctx, "reading entries", err)
	}

	if len(entries) != m.Count {
		return nil, nil, fmt.Errorf("%w: manifest records %d entries, found %d",
			domain.ErrCorruptIndex, m.Count, len(entries))
	}
	if sum != m.Checksum {
		return nil, nil, fmt.Errorf("%w: checksum mismatch", domain.ErrCorruptIndex)
	}
	return m, entries, nil
}

// Init stamps identity on an empty index, creating the manifest if absent.
func (s *Store) Init(ctx context.Context, identity domain.IndexIdentity) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		m, err := readManifest(ctx, tx)
		if err != nil {
			return s.corrupt(ctx, "reading manifest", err)
		}
		now := time.Now().UTC()
		if m == nil {
			return writeManifest(ctx, tx, &domain.IndexManifest{
				IndexIdentity: identity,
				FormatVersion: domain.IndexFormatVersion,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
		if m.IndexIdentity.Equal(identity) {
			return nil
		}
		if m.Count > 0 {
			return fmt.Errorf("%w: index holds %d entries built with %s/%d",
				domain.ErrIndexMismatch, m.Count, m.EmbeddingModel, m.Dimensions)
		}
		m.IndexIdentity = identity
		m.UpdatedAt = now
		return writeManifest(ctx, tx, m)
	})
}

// Append persists entries after the existing ones and updates the manifest.
func (s *Store) Append(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		m, err := readManifest(ctx, tx)
		if err != nil {
			return s.corrupt(ctx, "reading manifest", err)
		}
		if m == nil {
			return fmt.Errorf("%w: index is not initialised", domain.ErrIndexNotFound)
		}
		sum, err := insertEntries(ctx, tx, m.Dimensions, m.Checksum, entries)
		if err != nil {
			return err
		}
		m.Count += len(entries)
		m.Checksum = sum
		m.UpdatedAt = time.Now().UTC()
		return writeManifest(ctx, tx, m)
	})
}

// Replace discards every persisted entry and writes entries under identity.
func (s *Store) Replace(ctx context.Context, identity domain.IndexIdentity, entries []domain.IndexEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
			return fmt.Errorf("clearing entries: %w", err)
		}
		sum, err := insertEntries(ctx, tx, identity.Dimensions, "", entries)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return writeManifest(ctx, tx, &domain.IndexManifest{
			IndexIdentity: identity,
			FormatVersion: domain.IndexFormatVersion,
			Count:         len(entries),
			Checksum:      sum,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	})
}

// insertEntries writes entries and returns the checksum chained from prev.
func insertEntries(ctx context.Context, tx *sql.Tx, dims int, prev string, entries []domain.IndexEntry) (string, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, document_id, position, content, vector, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	sum := prev
	for _, e := range entries {
		if len(e.Vector) != dims {
			return "", fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrIndexMismatch, e.ChunkID, len(e.Vector), dims)
		}
		vec := codec.EncodeVector(e.Vector)
		meta, err := codec.EncodeMetadata(e.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.DocumentID, e.Position, e.Content, vec, string(meta)); err != nil {
			return "", fmt.Errorf("inserting entry %s: %w", e.ChunkID, err)
		}
		sum = codec.Chain(sum, e, vec, meta)
	}
	return sum, nil
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// corrupt classifies a read failure. Cancellation is passed through.
func (s *Store) corrupt(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s %s: %v", domain.ErrCorruptIndex, op, s.path, err)
}
