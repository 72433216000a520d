// Package history persists completed print job outcomes and derives
// per-printer success rates from them.
//
// Outcomes are appended to the job_history table as jobs finish. The
// scheduler consumes the aggregated rankings through its SuccessRates
// collaborator; printers with no recorded outcomes simply do not appear
// in the rankings and fall back to the scheduler's default rate.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/codeofaxel/Kiln-sub005/internal/scheduler"
)

const (
	defaultOutcomeLimit = 50
	maxOutcomeLimit     = 200
)

// Outcome is one recorded job completion.
type Outcome struct {
	ID          int64     `json:"id"`
	PrinterName string    `json:"printer_name"`
	JobID       string    `json:"job_id"`
	Success     bool      `json:"success"`
	CompletedAt time.Time `json:"completed_at"`
}

// Repository stores job outcomes in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a job history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *Repository: Repository instance ready for use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordOutcome inserts a completed job outcome for a printer.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - printerName: Printer that ran the job
//   - jobID: Identifier of the completed job
//   - success: Whether the job finished without failure
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) RecordOutcome(ctx context.Context, printerName, jobID string, success bool) error {
	if printerName == "" {
		return fmt.Errorf("printer name is required")
	}
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}

	completedAt := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO job_history (printer_name, job_id, success, completed_at) VALUES (?, ?, ?, ?)",
		printerName,
		jobID,
		boolToInt(success),
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting job outcome: %w", err)
	}

	return nil
}

// Outcomes returns recent outcomes for a printer, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - printerName: Printer to look up
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Outcome: Outcomes ordered by completed_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) Outcomes(ctx context.Context, printerName string, limit int) ([]Outcome, error) {
	if printerName == "" {
		return nil, fmt.Errorf("printer name is required")
	}
	if limit <= 0 {
		limit = defaultOutcomeLimit
	}
	if limit > maxOutcomeLimit {
		limit = maxOutcomeLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, printer_name, job_id, success, completed_at
		 FROM job_history
		 WHERE printer_name = ?
		 ORDER BY completed_at DESC, id DESC
		 LIMIT ?`,
		printerName,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying job history: %w", err)
	}
	defer rows.Close()

	outcomes := make([]Outcome, 0, limit)
	for rows.Next() {
		var outcome Outcome
		var success int
		var completedAt string

		if err := rows.Scan(&outcome.ID, &outcome.PrinterName, &outcome.JobID, &success, &completedAt); err != nil {
			return nil, fmt.Errorf("scanning job history: %w", err)
		}

		outcome.Success = success != 0

		timestamp, err := time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		outcome.CompletedAt = timestamp

		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job history: %w", err)
	}

	return outcomes, nil
}

// PrinterRankings aggregates success rates across all recorded outcomes,
// one row per printer with at least one outcome.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []scheduler.PrinterRanking: Rankings ordered by printer name
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) PrinterRankings(ctx context.Context) ([]scheduler.PrinterRanking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT printer_name, AVG(success)
		 FROM job_history
		 GROUP BY printer_name
		 ORDER BY printer_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying printer rankings: %w", err)
	}
	defer rows.Close()

	var rankings []scheduler.PrinterRanking
	for rows.Next() {
		var ranking scheduler.PrinterRanking
		if err := rows.Scan(&ranking.PrinterName, &ranking.SuccessRate); err != nil {
			return nil, fmt.Errorf("scanning printer ranking: %w", err)
		}
		rankings = append(rankings, ranking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating printer rankings: %w", err)
	}

	return rankings, nil
}

// Prune deletes outcomes older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM job_history WHERE completed_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting job history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
