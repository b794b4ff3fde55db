package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dyike/NexusGo/internal/models"
)

// Store persists completed run outcomes for the history command.
type Store struct {
	db *sql.DB
}

// RunRecord is one completed workflow run.
type RunRecord struct {
	ID              int64
	Ticker          string
	Market          string
	SimulatedDate   string
	Horizon         string
	Action          string
	EntryPrice      *float64
	TakeProfit      *float64
	StopLoss        *float64
	PositionSizePct float64
	Rationale       string
	ManagerAction   string
	TraderAction    string
	OriginalAction  string
	Overrode        bool
	CreatedAt       time.Time
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker TEXT NOT NULL,
    market TEXT,
    simulated_date TEXT NOT NULL,
    horizon TEXT NOT NULL,
    action TEXT NOT NULL,
    entry_price REAL,
    take_profit REAL,
    stop_loss REAL,
    position_size_pct REAL NOT NULL,
    rationale TEXT,
    manager_action TEXT,
    trader_action TEXT,
    original_action TEXT,
    overrode INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_ticker ON runs(ticker);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init runs schema: %w", err)
	}
	return nil
}

// SaveRun records the outcome of a finished run. The state must carry a
// decision.
func (s *Store) SaveRun(ctx context.Context, state *models.AgentState) (int64, error) {
	if state.Decision == nil {
		return 0, fmt.Errorf("run for %s has no decision", state.Ticker)
	}
	d := state.Decision

	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (
    ticker, market, simulated_date, horizon, action,
    entry_price, take_profit, stop_loss, position_size_pct, rationale,
    manager_action, trader_action, original_action, overrode
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.ToUpper(state.Ticker), state.Market, state.SimulatedDate, string(state.Horizon), string(d.Action),
		nullableFloat(d.EntryPrice), nullableFloat(d.TakeProfit), nullableFloat(d.StopLoss),
		d.PositionSizePct, d.Rationale,
		string(state.Metadata.ManagerRecommendation), string(state.Metadata.TraderRecommendation),
		string(state.Metadata.OriginalAction), state.Metadata.Overrode)
	if err != nil {
		return 0, fmt.Errorf("save run for %s: %w", state.Ticker, err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first. An empty ticker lists
// runs for all tickers.
func (s *Store) ListRuns(ctx context.Context, ticker string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
SELECT id, ticker, market, simulated_date, horizon, action,
       entry_price, take_profit, stop_loss, position_size_pct, rationale,
       manager_action, trader_action, original_action, overrode, created_at
FROM runs`
	args := []any{}
	if ticker != "" {
		query += " WHERE ticker = ?"
		args = append(args, strings.ToUpper(ticker))
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var entry, tp, sl sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Market, &r.SimulatedDate, &r.Horizon, &r.Action,
			&entry, &tp, &sl, &r.PositionSizePct, &r.Rationale,
			&r.ManagerAction, &r.TraderAction, &r.OriginalAction, &r.Overrode, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.EntryPrice = floatPtr(entry)
		r.TakeProfit = floatPtr(tp)
		r.StopLoss = floatPtr(sl)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
