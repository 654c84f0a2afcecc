package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"StockPulse/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
// Money columns are stored as exact decimal text.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			period         TEXT,
			bar_date       TEXT,
			close          REAL,
			classification TEXT NOT NULL,
			score          INTEGER,
			strength       REAL,
			rsi            REAL,
			reasons        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id                    TEXT PRIMARY KEY,
			timestamp             INTEGER NOT NULL,
			symbol                TEXT NOT NULL,
			period                TEXT,
			position_fraction     REAL,
			initial_capital       TEXT,
			final_capital         TEXT,
			total_return_pct      REAL,
			annualized_return_pct REAL,
			sharpe_ratio          REAL,
			max_drawdown_pct      REAL,
			total_trades          INTEGER,
			win_rate_pct          REAL,
			avg_win               TEXT,
			avg_loss              TEXT,
			open_position         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_symbol_ts ON backtest_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   TEXT NOT NULL REFERENCES backtest_runs(id),
			seq      INTEGER NOT NULL,
			date     TEXT NOT NULL,
			side     TEXT NOT NULL,
			price    REAL,
			shares   REAL,
			pnl      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id, seq)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}

func nullable(v model.NullFloat) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func (r *SQLiteRecorder) RecordSignal(ctx context.Context, evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reasons, err := json.Marshal(evt.Signal.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO signals
		(timestamp, symbol, period, bar_date, close, classification, score, strength, rsi, reasons)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.Symbol, evt.Period, evt.Signal.EvaluatedAt.Format("2006-01-02"), evt.Close,
		string(evt.Signal.Classification), evt.Signal.Score, evt.Signal.Strength,
		nullable(evt.Signal.RSI), string(reasons),
	)
	return err
}

func (r *SQLiteRecorder) RecordBacktest(ctx context.Context, run *BacktestRun) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	res := run.Result

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO backtest_runs
		(id, timestamp, symbol, period, position_fraction, initial_capital, final_capital,
		 total_return_pct, annualized_return_pct, sharpe_ratio, max_drawdown_pct,
		 total_trades, win_rate_pct, avg_win, avg_loss, open_position)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, r.now().Unix(), run.Symbol, run.Period, run.PositionFraction,
		money(res.InitialCapital), money(res.FinalCapital),
		res.TotalReturnPct, res.AnnualizedReturnPct, res.SharpeRatio, res.MaxDrawdownPct,
		res.TotalTrades, res.WinRatePct, money(res.AvgWin), money(res.AvgLoss), res.OpenPosition,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO backtest_trades
		(run_id, seq, date, side, price, shares, pnl) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("prepare trades: %w", err)
	}
	defer stmt.Close()
	for i, t := range res.Trades {
		var pnl any
		if t.Side == model.SideSell {
			pnl = money(t.PnL)
		}
		if _, err := stmt.ExecContext(ctx, id, i, t.Date.Format("2006-01-02"), string(t.Side), t.Price, t.Shares, pnl); err != nil {
			return "", fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecentSignals returns the newest signals for symbol, newest first.
func (r *SQLiteRecorder) RecentSignals(ctx context.Context, symbol string, limit int) ([]SignalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, symbol, period, bar_date, close,
		classification, score, rsi, reasons
		FROM signals WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var (
			ts      int64
			barDate string
			rsi     sql.NullFloat64
			reasons string
			class   string
			rec     SignalRecord
		)
		if err := rows.Scan(&ts, &rec.Symbol, &rec.Period, &barDate, &rec.Close, &class, &rec.Score, &rsi, &reasons); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		rec.RecordedAt = time.Unix(ts, 0)
		rec.EvaluatedAt, _ = time.Parse("2006-01-02", barDate)
		rec.Classification = model.Classification(class)
		rec.RSI = model.NullFloat{Float64: rsi.Float64, Valid: rsi.Valid}
		if err := json.Unmarshal([]byte(reasons), &rec.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BacktestTrades returns the stored trade log of a run in fill order.
func (r *SQLiteRecorder) BacktestTrades(ctx context.Context, runID string) ([]model.Trade, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, side, price, shares, pnl
		FROM backtest_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var (
			date, side string
			pnl        sql.NullString
			t          model.Trade
		)
		if err := rows.Scan(&date, &side, &t.Price, &t.Shares, &pnl); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Date, _ = time.Parse("2006-01-02", date)
		t.Side = model.Side(side)
		if pnl.Valid {
			d, err := decimal.NewFromString(pnl.String)
			if err != nil {
				return nil, fmt.Errorf("parse pnl: %w", err)
			}
			t.PnL = d.InexactFloat64()
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
