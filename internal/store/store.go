// Package store provides PostgreSQL persistence for campaign metrics.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/adsentry-team/adsentry/internal/config"
	"github.com/adsentry-team/adsentry/internal/model"
)

// MaxQueryRows limits the number of rows returned by metrics queries.
const MaxQueryRows = 10000

const schema = `
CREATE TABLE IF NOT EXISTS campaign_metrics (
	id SERIAL PRIMARY KEY,
	campaign_id VARCHAR(255),
	platform VARCHAR(50),
	ts TIMESTAMPTZ,
	impressions BIGINT,
	clicks BIGINT,
	conversions BIGINT,
	ctr DOUBLE PRECISION,
	cpc DOUBLE PRECISION,
	roas DOUBLE PRECISION,
	daily_spend DOUBLE PRECISION,
	daily_budget_limit DOUBLE PRECISION,
	budget_utilization DOUBLE PRECISION,
	revenue DOUBLE PRECISION,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_metrics_ts ON campaign_metrics (ts);

CREATE INDEX IF NOT EXISTS idx_metrics_campaign ON campaign_metrics (campaign_id);

CREATE TABLE IF NOT EXISTS system_health (
	id SERIAL PRIMARY KEY,
	service VARCHAR(100),
	status VARCHAR(20),
	last_check TIMESTAMPTZ,
	success_rate DOUBLE PRECISION,
	error_message TEXT
);
`

const metricColumns = `campaign_id, platform, ts, impressions, clicks, conversions,
	ctr, cpc, roas, daily_spend, daily_budget_limit, budget_utilization, revenue`

// Store handles database connections and queries against the metrics schema.
type Store struct {
	db  *sql.DB
	cfg *config.DatabaseConfig
}

// New opens a connection pool with the given database configuration.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db, cfg: cfg}, nil
}

// Ping tests the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables and indexes if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// InsertMetrics stores a batch of campaign records in one transaction.
func (s *Store) InsertMetrics(ctx context.Context, metrics []model.CampaignMetrics) (int, error) {
	if len(metrics) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO campaign_metrics (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`, metricColumns)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range metrics {
		m := &metrics[i]
		if err := m.Validate(); err != nil {
			return 0, fmt.Errorf("rejecting row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			m.CampaignID, m.Platform, m.Timestamp,
			m.Impressions, m.Clicks, m.Conversions,
			m.CTR, m.CPC, m.ROAS,
			m.DailySpend, m.DailyBudgetLimit, m.BudgetUtilization,
			m.Revenue,
		); err != nil {
			return 0, fmt.Errorf("inserting metrics for %s: %w", m.CampaignID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing metrics: %w", err)
	}

	return len(metrics), nil
}

// RecentMetrics returns records observed within the given window, newest first.
func (s *Store) RecentMetrics(ctx context.Context, window time.Duration) ([]model.CampaignMetrics, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_metrics
		WHERE ts > $1
		ORDER BY ts DESC
		LIMIT %d`, metricColumns, MaxQueryRows)

	cutoff := time.Now().Add(-window)
	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying recent metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// CampaignHistory returns one campaign's records over the last days days,
// oldest first so trend analysis sees them in time order.
func (s *Store) CampaignHistory(ctx context.Context, campaignID string, days int) ([]model.CampaignMetrics, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_metrics
		WHERE campaign_id = $1 AND ts > $2
		ORDER BY ts
		LIMIT %d`, metricColumns, MaxQueryRows)

	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, query, campaignID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying campaign history: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// RecordHealth upserts a service health row.
func (s *Store) RecordHealth(ctx context.Context, service, status string, successRate float64, errMsg string) error {
	query := `INSERT INTO system_health (service, status, last_check, success_rate, error_message)
		VALUES ($1, $2, $3, $4, $5)`

	var errField sql.NullString
	if errMsg != "" {
		errField = sql.NullString{String: errMsg, Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, query, service, status, time.Now(), successRate, errField); err != nil {
		return fmt.Errorf("recording health for %s: %w", service, err)
	}
	return nil
}

func scanMetrics(rows *sql.Rows) ([]model.CampaignMetrics, error) {
	var metrics []model.CampaignMetrics
	for rows.Next() {
		var m model.CampaignMetrics
		if err := rows.Scan(
			&m.CampaignID, &m.Platform, &m.Timestamp,
			&m.Impressions, &m.Clicks, &m.Conversions,
			&m.CTR, &m.CPC, &m.ROAS,
			&m.DailySpend, &m.DailyBudgetLimit, &m.BudgetUtilization,
			&m.Revenue,
		); err != nil {
			return nil, fmt.Errorf("scanning metrics row: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metrics rows: %w", err)
	}

	return metrics, nil
}

// IsMissingTableError checks if the error is due to an absent table, which
// usually means InitSchema has not run against this database.
func IsMissingTableError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 42P01 = undefined_table
		return pqErr.Code == "42P01"
	}
	return false
}
