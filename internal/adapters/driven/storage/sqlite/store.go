package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/iocsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// timeLayout is fixed-width UTC so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "indicators.db"

// Store is a SQLite-backed storage that provides the indicator and
// checkpoint stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.iocsync/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".iocsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// IndicatorStore returns an IndicatorStore backed by this store.
func (s *Store) IndicatorStore() driven.IndicatorStore {
	return &indicatorStore{store: s}
}

// CheckpointStore returns a CheckpointStore backed by this store.
func (s *Store) CheckpointStore() driven.CheckpointStore {
	return &checkpointStore{store: s}
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== Indicator Store ====================

// indicatorStore implements driven.IndicatorStore.
type indicatorStore struct {
	store *Store
}

var _ driven.IndicatorStore = (*indicatorStore)(nil)

const indicatorColumns = `id, type, value, confidence, labels, sources, first_seen, last_seen, created_at, updated_at`

// Find retrieves the indicator with the exact type and value.
func (s *indicatorStore) Find(
	ctx context.Context,
	indicatorType domain.IndicatorType,
	value string,
) (*domain.Indicator, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+indicatorColumns+` FROM indicators WHERE type = ? AND value = ?`,
		string(indicatorType), value)

	ind, err := scanIndicator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ind, nil
}

// Create inserts a new indicator, assigning ID and timestamps.
func (s *indicatorStore) Create(ctx context.Context, indicator *domain.Indicator) error {
	if !indicator.Storable() {
		return domain.ErrInvalidInput
	}

	labels, sources, err := encodeSets(indicator)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	now := s.store.now().UTC()

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO indicators (`+indicatorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, value) DO NOTHING
	`, id, string(indicator.Type), indicator.Value, nullInt(indicator.Confidence),
		labels, sources, nullTime(indicator.FirstSeen), nullTime(indicator.LastSeen),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("creating indicator: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating indicator: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}

	indicator.ID = id
	indicator.CreatedAt = now
	indicator.UpdatedAt = now
	return nil
}

// Save updates an existing indicator identified by (type, value).
func (s *indicatorStore) Save(ctx context.Context, indicator *domain.Indicator) error {
	if indicator == nil {
		return domain.ErrInvalidInput
	}

	labels, sources, err := encodeSets(indicator)
	if err != nil {
		return err
	}

	now := s.store.now().UTC()
	row := s.store.db.QueryRowContext(ctx, `
		UPDATE indicators SET
			confidence = ?,
			labels = ?,
			sources = ?,
			first_seen = ?,
			last_seen = ?,
			updated_at = ?
		WHERE type = ? AND value = ?
		RETURNING id, created_at
	`, nullInt(indicator.Confidence), labels, sources,
		nullTime(indicator.FirstSeen), nullTime(indicator.LastSeen),
		now.Format(timeLayout), string(indicator.Type), indicator.Value)

	var id, createdAt string
	if err := row.Scan(&id, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("saving indicator: %w", err)
	}

	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	indicator.ID = id
	indicator.CreatedAt = created
	indicator.UpdatedAt = now
	return nil
}

// List returns indicators matching the filter, most recently seen first.
func (s *indicatorStore) List(ctx context.Context, filter domain.IndicatorFilter) ([]domain.Indicator, error) {
	query := `SELECT ` + indicatorColumns + ` FROM indicators`

	var where []string
	var args []any
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Source != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(indicators.sources) WHERE json_each.value = ?)")
		args = append(args, filter.Source)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_seen IS NULL, last_seen DESC, type, value"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing indicators: %w", err)
	}
	defer rows.Close()

	var out []domain.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ind)
	}
	return out, rows.Err()
}

// Count returns the number of stored indicators per type.
func (s *indicatorStore) Count(ctx context.Context) (map[domain.IndicatorType]int, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM indicators GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("counting indicators: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.IndicatorType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[domain.IndicatorType(t)] = n
	}
	return counts, rows.Err()
}

// ==================== Checkpoint Store ====================

// checkpointStore implements driven.CheckpointStore.
type checkpointStore struct {
	store *Store
}

var _ driven.CheckpointStore = (*checkpointStore)(nil)

// Save stores or overwrites the checkpoint for (source, collection).
func (s *checkpointStore) Save(ctx context.Context, checkpoint domain.Checkpoint) error {
	if checkpoint.Source == "" {
		return domain.ErrInvalidInput
	}

	updated := checkpoint.UpdatedAt
	if updated.IsZero() {
		updated = s.store.now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (source, collection, cursor, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, collection) DO UPDATE SET
			cursor = excluded.cursor,
			updated_at = excluded.updated_at
	`, checkpoint.Source, checkpoint.Collection, checkpoint.Cursor, updated.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Get retrieves the checkpoint for (source, collection).
func (s *checkpointStore) Get(ctx context.Context, source, collection string) (*domain.Checkpoint, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source, collection, cursor, updated_at
		FROM checkpoints WHERE source = ? AND collection = ?
	`, source, collection)

	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return cp, err
}

// List returns checkpoints ordered by source then collection.
func (s *checkpointStore) List(ctx context.Context, source string) ([]domain.Checkpoint, error) {
	query := `SELECT source, collection, cursor, updated_at FROM checkpoints`
	var args []any
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY source, collection"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	var out []domain.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	return out, rows.Err()
}

// Delete removes the checkpoint for (source, collection).
func (s *checkpointStore) Delete(ctx context.Context, source, collection string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM checkpoints WHERE source = ? AND collection = ?", source, collection)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

type scanner interface {
	Scan(dest ...any) error
}

func scanIndicator(row scanner) (*domain.Indicator, error) {
	var (
		ind                  domain.Indicator
		typ                  string
		confidence           sql.NullInt64
		labels, sources      string
		firstSeen, lastSeen  sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&ind.ID, &typ, &ind.Value, &confidence, &labels, &sources,
		&firstSeen, &lastSeen, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning indicator: %w", err)
	}

	ind.Type = domain.IndicatorType(typ)
	if confidence.Valid {
		c := int(confidence.Int64)
		ind.Confidence = &c
	}
	if err := json.Unmarshal([]byte(labels), &ind.Labels); err != nil {
		return nil, fmt.Errorf("unmarshaling labels: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &ind.Sources); err != nil {
		return nil, fmt.Errorf("unmarshaling sources: %w", err)
	}
	ind.Labels = emptyToNil(ind.Labels)
	ind.Sources = emptyToNil(ind.Sources)
	if ind.FirstSeen, err = parseNullTime(firstSeen); err != nil {
		return nil, err
	}
	if ind.LastSeen, err = parseNullTime(lastSeen); err != nil {
		return nil, err
	}
	if ind.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if ind.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &ind, nil
}

func scanCheckpoint(row scanner) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	var updatedAt string
	err := row.Scan(&cp.Source, &cp.Collection, &cp.Cursor, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}
	if cp.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &cp, nil
}

// encodeSets marshals labels and sources, writing empty sets as [].
func encodeSets(ind *domain.Indicator) (string, string, error) {
	labels, err := json.Marshal(nonNil(ind.Labels))
	if err != nil {
		return "", "", fmt.Errorf("marshaling labels: %w", err)
	}
	sources, err := json.Marshal(nonNil(ind.Sources))
	if err != nil {
		return "", "", fmt.Errorf("marshaling sources: %w", err)
	}
	return string(labels), string(sources), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyToNil(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", v.String, err)
	}
	return &t, nil
}
