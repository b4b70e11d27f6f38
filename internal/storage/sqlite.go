package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sentinel/internal/models"
)

const defaultHistoryLimit = 50

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the prediction history database.
func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:sentinel.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			cpu_load REAL NOT NULL,
			cpu_load_avg REAL NOT NULL,
			ram_used REAL NOT NULL,
			temperature REAL NOT NULL,
			temperature_delta REAL NOT NULL,
			probability REAL NOT NULL,
			tier TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) SavePrediction(ctx context.Context, record models.PredictionRecord) error {
	if s.db == nil {
		return nil
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (created_at, source, cpu_load, cpu_load_avg, ram_used, temperature, temperature_delta, probability, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.UTC().Format(time.RFC3339Nano),
		record.Source,
		record.CPULoad,
		record.CPULoadAvg,
		record.RAMUsed,
		record.Temperature,
		record.TemperatureDelta,
		record.Probability,
		string(record.Tier),
	)
	return err
}

func (s *sqliteStore) RecentPredictions(ctx context.Context, limit int) ([]models.PredictionRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, cpu_load, cpu_load_avg, ram_used, temperature, temperature_delta, probability, tier
		FROM predictions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var rec models.PredictionRecord
		var createdAt, tier string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Source, &rec.CPULoad, &rec.CPULoadAvg,
			&rec.RAMUsed, &rec.Temperature, &rec.TemperatureDelta, &rec.Probability, &tier); err != nil {
			return nil, err
		}
		if ts, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
			rec.CreatedAt = ts
		}
		rec.Tier = models.RiskTier(tier)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
