package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"papertrade/internal/replay"
	"papertrade/types"
)

// CreateRun persists a finished run in a single transaction: the account row,
// its final balances, positions and fills, and the run record itself. Either
// everything lands or nothing does, so a failed run never leaves a partially
// written report behind.
func (db *Database) CreateRun(ctx context.Context, run types.Run) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("marshal run params: %w", err)
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The account shares the run's id: one replay, one account.
	accountID := run.ID
	if _, err := tx.Exec(ctx,
		`INSERT INTO accounts (id, created_at) VALUES ($1, $2)`,
		accountID, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert account: %w", err)
	}

	for _, b := range run.Report.Balances {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_balances (account_id, asset, amount) VALUES ($1, $2, $3)`,
			accountID, b.Asset, b.Amount,
		); err != nil {
			return fmt.Errorf("insert balance %s: %w", b.Asset, err)
		}
	}

	for _, p := range run.Report.Positions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_positions (account_id, symbol, qty, avg_price) VALUES ($1, $2, $3, $4)`,
			accountID, p.Symbol, p.Qty, p.AvgPrice,
		); err != nil {
			return fmt.Errorf("insert position %s: %w", p.Symbol, err)
		}
	}

	for _, f := range run.Report.Fills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO account_fills (id, account_id, symbol, qty, price, fee, ts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, accountID, f.Symbol, f.Qty, f.Price, f.Fee, f.Timestamp,
		); err != nil {
			return fmt.Errorf("insert fill %s: %w", f.ID, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO runs (id, account_id, symbol, params, report, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, accountID, run.Params.Symbol, params, report, string(run.Status), run.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run tx: %w", err)
	}
	return nil
}

// GetRun retrieves a run record by id.
func (db *Database) GetRun(ctx context.Context, id string) (types.Run, error) {
	var (
		run    types.Run
		params []byte
		report []byte
		status string
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, params, report, status, created_at FROM runs WHERE id = $1`,
		id,
	).Scan(&run.ID, &params, &report, &status, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Run{}, fmt.Errorf("run %s: %w", id, replay.ErrRunNotFound)
		}
		return types.Run{}, fmt.Errorf("query run %s: %w", id, err)
	}

	if err := json.Unmarshal(params, &run.Params); err != nil {
		return types.Run{}, fmt.Errorf("unmarshal run params: %w", err)
	}
	if err := json.Unmarshal(report, &run.Report); err != nil {
		return types.Run{}, fmt.Errorf("unmarshal run report: %w", err)
	}
	run.Status = types.RunStatus(status)
	return run, nil
}

// ListRuns returns run ids with their symbol and status, newest first.
func (db *Database) ListRuns(ctx context.Context, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, symbol, status, created_at FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var (
			run    types.Run
			status string
		)
		if err := rows.Scan(&run.ID, &run.Params.Symbol, &status, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = types.RunStatus(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
