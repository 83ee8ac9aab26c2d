package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/faqbot/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driven"
	"github.com/custodia-labs/faqbot/internal/logger"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// DBFile is the name of the index database inside the store directory.
const DBFile = "index.db"

// IndexStore persists an index in a SQLite database.
type IndexStore struct {
	dir  string
	path string
}

// NewIndexStore creates a store whose database lives in dir.
// If dir is empty, defaults to ~/.faqbot/index.
func NewIndexStore(dir string) (*IndexStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".faqbot", "index")
	}
	return &IndexStore{dir: dir, path: filepath.Join(dir, DBFile)}, nil
}

// Location returns the database file path.
func (s *IndexStore) Location() string {
	return s.path
}

// Save writes the index to a fresh database and renames it over index.db.
func (s *IndexStore) Save(ctx context.Context, index *domain.Index, manifest domain.IndexManifest) error {
	if index == nil {
		return fmt.Errorf("%w: index is nil", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	manifest.Rows = index.Len()
	manifest.Dimensions = index.Dimensions()

	tmp := filepath.Join(s.dir, ".index-"+uuid.NewString()+".db")
	if err := s.writeDB(ctx, tmp, index, manifest); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", DBFile, err)
	}

	logger.Debug("Wrote %d rows to %s", manifest.Rows, s.path)
	return nil
}

func (s *IndexStore) writeDB(ctx context.Context, path string, index *domain.Index, m domain.IndexManifest) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrate(ctx, db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifest (id, build_id, model, dimensions, rows, corpus_path, created_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)`,
		m.BuildID, m.Model, m.Dimensions, m.Rows, m.CorpusPath, m.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting manifest: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (row, id, question, answer, source_locator) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors (row, dimension, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing vector insert: %w", err)
	}
	defer vecStmt.Close()

	for i := 0; i < index.Len(); i++ {
		r := index.Record(i)
		if _, err := recStmt.ExecContext(ctx, i, r.ID, r.Question, r.Answer, r.SourceLocator); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
		v := index.Vector(i)
		if _, err := vecStmt.ExecContext(ctx, i, len(v), float32SliceToBytes(v)); err != nil {
			return fmt.Errorf("inserting vector %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads and validates index.db.
func (s *IndexStore) Load(ctx context.Context) (*domain.Index, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no index at %s", domain.ErrIndexNotBuilt, s.path)
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIndexLoad, err)
	}
	defer db.Close()

	m, err := readManifest(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	records, err := readRecords(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	vectors, err := readVectors(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	if len(vectors) != len(records) || len(records) != m.Rows {
		return nil, fmt.Errorf("%w: %d vectors, %d records, manifest says %d",
			domain.ErrIndexLoad, len(vectors), len(records), m.Rows)
	}

	idx, err := domain.NewIndex(vectors, records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}
	if idx.Len() > 0 && idx.Dimensions() != m.Dimensions {
		return nil, fmt.Errorf("%w: vectors have %d dimensions, manifest says %d",
			domain.ErrIndexLoad, idx.Dimensions(), m.Dimensions)
	}
	if err := idx.CheckNormalised(domain.UnitNormTolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexLoad, err)
	}

	logger.Debug("Loaded %d rows x %d dims from %s", idx.Len(), idx.Dimensions(), s.path)
	return idx.WithManifest(m), nil
}

func readManifest(ctx context.Context, db *sql.DB) (domain.IndexManifest, error) {
	var m domain.IndexManifest
	var created string
	err := db.QueryRowContext(ctx, `
		SELECT build_id, model, dimensions, rows, corpus_path, created_at
		FROM manifest WHERE id = 1`).
		Scan(&m.BuildID, &m.Model, &m.Dimensions, &m.Rows, &m.CorpusPath, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return m, errors.New("manifest row missing")
	}
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return m, fmt.Errorf("manifest created_at: %w", err)
	}
	return m, nil
}

func readRecords(ctx context.Context, db *sql.DB) ([]domain.Record, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT row, id, question, answer, source_locator FROM records ORDER BY row`)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var row int
		var r domain.Record
		if err := rows.Scan(&row, &r.ID, &r.Question, &r.Answer, &r.SourceLocator); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if row != len(records) {
			return nil, fmt.Errorf("record rows not contiguous at %d", len(records))
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func readVectors(ctx context.Context, db *sql.DB) ([][]float32, error) {
	rows, err := db.QueryContext(ctx, `SELECT row, dimension, data FROM vectors ORDER BY row`)
	if err != nil {
		return nil, fmt.Errorf("reading vectors: %w", err)
	}
	defer rows.Close()

	vectors := [][]float32{}
	for rows.Next() {
		var row, dim int
		var data []byte
		if err := rows.Scan(&row, &dim, &data); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		if row != len(vectors) {
			return nil, fmt.Errorf("vector rows not contiguous at %d", len(vectors))
		}
		if len(data) != dim*4 {
			return nil, fmt.Errorf("vector %d: %d bytes for %d dimensions", row, len(data), dim)
		}
		vectors = append(vectors, bytesToFloat32Slice(data))
	}
	return vectors, rows.Err()
}

// migrate runs all pending up migrations in version order.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
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
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
