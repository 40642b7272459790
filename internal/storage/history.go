package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"cscrape/internal/config"
	"cscrape/internal/domain"
)

// History appends every run to MySQL so that flaky fixtures can be traced
// over time. The schema is created by the migrate command.
type History struct {
	db *sql.DB
}

// DSN builds the driver connection string. withDatabase is false when
// connecting to create the schema itself.
func DSN(db config.Database, withDatabase bool) string {
	c := mysql.NewConfig()
	c.User = db.User
	c.Passwd = db.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(db.Host, db.Port)
	c.ParseTime = true
	c.MultiStatements = false
	if withDatabase {
		c.DBName = db.Name
	}
	return c.FormatDSN()
}

// OpenHistory connects to the history database and checks it is reachable.
func OpenHistory(ctx context.Context, db config.Database) (*History, error) {
	conn, err := sql.Open("mysql", DSN(db, true))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	return NewHistory(conn), nil
}

// NewHistory wraps an open connection.
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// Close closes the connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Record inserts the run and its failures in one transaction and returns the
// run id.
func (h *History) Record(ctx context.Context, output *domain.RunOutput) (id int64, err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	started, perr := time.Parse(time.RFC3339, output.Meta.Timestamp)
	if perr != nil {
		started = time.Now()
	}
	m := output.Meta
	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (started_at, duration_seconds, workers, total_jobs, failed_jobs, compiled_jobs, checked_records, failed_records) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		started.UTC(), m.DurationSeconds, m.Workers, m.TotalJobs, m.FailedJobs, m.CompiledJobs, m.CheckedRecords, m.FailedRecords)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO failures (run_id, simulator, fixture, file, line, kind, expr, expected, actual, message) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare failure insert: %w", err)
	}
	defer stmt.Close()
	for _, f := range output.Details {
		if _, err = stmt.ExecContext(ctx, id, f.Simulator, f.Fixture, f.File, f.Line, f.Kind, f.Expr, f.Expected, f.Actual, f.Message); err != nil {
			return 0, fmt.Errorf("insert failure: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// FailureCount is how often a job failed across the recorded runs
type FailureCount struct {
	Simulator string
	Fixture   string
	Runs      int
}

// MostFailing returns the jobs that failed in the most runs.
func (h *History) MostFailing(ctx context.Context, limit int) ([]FailureCount, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT simulator, fixture, COUNT(DISTINCT run_id) AS n FROM failures GROUP BY simulator, fixture ORDER BY n DESC, simulator, fixture LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []FailureCount
	for rows.Next() {
		var fc FailureCount
		if err := rows.Scan(&fc.Simulator, &fc.Fixture, &fc.Runs); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
