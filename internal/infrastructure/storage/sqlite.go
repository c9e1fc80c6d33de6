package storage

import (
	"ascension-server/internal/domain"
	"ascension-server/pkg/logger"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// ErrNotFound - записи с таким id нет
var ErrNotFound = errors.New("not found")

// SnapshotRecord - сохраненный снапшот рана
type SnapshotRecord struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	Version   int       `json:"version"`
	Floor     int       `json:"floor"`
	Body      []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReplayRecord - сохраненная лента (тело в формате ASRP)
type ReplayRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	Seed       uint32    `json:"seed"`
	EventCount int       `json:"eventCount"`
	Body       []byte    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SQLiteStore хранит снапшоты и реплеи в одном файле SQLite
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *logrus.Entry
}

// OpenSQLite открывает/создает базу и прогоняет миграции
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite не пишет параллельно

	s := &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.Log.WithFields(logrus.Fields{"component": "storage", "db": path}),
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Migrate создает таблицы, если их нет
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			floor INTEGER NOT NULL,
			body BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, created_at DESC);`,

		`CREATE TABLE IF NOT EXISTS replays (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			event_count INTEGER NOT NULL,
			body BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_replays_run ON replays(run_id, created_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// --------- Snapshots ---------

// SaveSnapshot сериализует снапшот в JSON и возвращает id записи
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap domain.RunSnapshot) (SnapshotRecord, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	rec := SnapshotRecord{
		ID:        uuid.NewString(),
		RunID:     snap.Run.RunID,
		Version:   snap.SnapshotVersion,
		Floor:     snap.FloorIndex,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, run_id, version, floor, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Version, rec.Floor, rec.Body, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("insert snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"snapshot_id": rec.ID,
		"run_id":      rec.RunID,
		"floor":       rec.Floor,
	}).Debug("Snapshot stored.")
	return rec, nil
}

// GetSnapshot возвращает запись с сырым JSON; разбор и проверка - на вызывающем
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (SnapshotRecord, error) {
	var (
		rec     SnapshotRecord
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, version, floor, body, created_at FROM snapshots WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.RunID, &rec.Version, &rec.Floor, &rec.Body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("select snapshot: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return rec, nil
}

// ListSnapshots - снапшоты рана, новые первыми (без тел)
func (s *SQLiteStore) ListSnapshots(ctx context.Context, runID string) ([]SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, version, floor, created_at FROM snapshots WHERE run_id = ? ORDER BY created_at DESC, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var (
			rec     SnapshotRecord
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Version, &rec.Floor, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --------- Replays ---------

// SaveReplay кодирует ленту в ASRP и сохраняет ее
func (s *SQLiteStore) SaveReplay(ctx context.Context, runID string, rf *ReplayFile) (ReplayRecord, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, rf); err != nil {
		return ReplayRecord{}, fmt.Errorf("encode replay: %w", err)
	}
	rec := ReplayRecord{
		ID:         uuid.NewString(),
		RunID:      runID,
		Seed:       rf.Seed,
		EventCount: len(rf.Events),
		Body:       buf.Bytes(),
		CreatedAt:  s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO replays (id, run_id, seed, event_count, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, int64(rec.Seed), rec.EventCount, rec.Body, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return ReplayRecord{}, fmt.Errorf("insert replay: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"replay_id": rec.ID,
		"run_id":    runID,
		"events":    rec.EventCount,
	}).Info("Replay stored.")
	return rec, nil
}

// GetReplay читает запись и декодирует ленту
func (s *SQLiteStore) GetReplay(ctx context.Context, id string) (ReplayRecord, *ReplayFile, error) {
	var (
		rec     ReplayRecord
		seed    int64
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, seed, event_count, body, created_at FROM replays WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.RunID, &seed, &rec.EventCount, &rec.Body, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ReplayRecord{}, nil, fmt.Errorf("replay %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ReplayRecord{}, nil, fmt.Errorf("select replay: %w", err)
	}
	rec.Seed = uint32(seed)
	rec.CreatedAt = time.UnixMilli(created).UTC()

	rf, err := Decode(bytes.NewReader(rec.Body))
	if err != nil {
		return ReplayRecord{}, nil, fmt.Errorf("decode replay %s: %w", id, err)
	}
	return rec, rf, nil
}
