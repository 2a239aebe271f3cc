package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/CouSixz/Ciborg/internal/models"
)

const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore is the embedded store used when no Postgres URL is configured.
type SQLiteStore struct {
	conn *sqlx.DB
}

type orderRow struct {
	ID               string         `db:"id"`
	TotalValue       sql.NullString `db:"total_value"`
	Status           string         `db:"status"`
	BusinessUnitType string         `db:"business_unit_type"`
	Supplier         string         `db:"supplier"`
	SupplierDocument string         `db:"supplier_document"`
	Client           string         `db:"client"`
	Regional         string         `db:"regional"`
	Branch           string         `db:"branch"`
	CreatedAt        sql.NullString `db:"created_at"`
}

type runRow struct {
	ID         string         `db:"id"`
	StartedAt  string         `db:"started_at"`
	FinishedAt sql.NullString `db:"finished_at"`
	Status     string         `db:"status"`
	Filter     string         `db:"filter"`
	Summary    sql.NullString `db:"summary"`
}

// OpenSQLite opens or creates a database file. Use ":memory:" in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() {
	_ = s.conn.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *SQLiteStore) ReplaceDataset(ctx context.Context, orders []models.ServiceOrder, agents []models.Agent) (int64, int64, error) {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_orders`); err != nil {
		return 0, 0, fmt.Errorf("clear orders: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM agents`); err != nil {
		return 0, 0, fmt.Errorf("clear agents: %w", err)
	}

	orderStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO service_orders (seq, id, total_value, status, business_unit_type, supplier, supplier_document, client, regional, branch, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, err
	}
	defer orderStmt.Close()
	for i, o := range orders {
		if _, err := orderStmt.ExecContext(ctx, i+1, o.ID, valueToText(o.TotalValue), o.Status, o.BusinessUnitType,
			o.Supplier, o.SupplierDocument, o.Client, o.Regional, o.Branch, formatSQLiteTime(o.CreatedAt)); err != nil {
			return 0, 0, fmt.Errorf("insert order %s: %w", o.ID, err)
		}
	}

	agentStmt, err := tx.PreparexContext(ctx, `INSERT INTO agents (seq, id, name, status, band_key) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, err
	}
	defer agentStmt.Close()
	for i, a := range agents {
		if _, err := agentStmt.ExecContext(ctx, i+1, a.ID, a.Name, a.Status, a.BandKey); err != nil {
			return 0, 0, fmt.Errorf("insert agent %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return int64(len(orders)), int64(len(agents)), nil
}

func (s *SQLiteStore) ListOrders(ctx context.Context) ([]models.ServiceOrder, error) {
	var rows []orderRow
	err := s.conn.SelectContext(ctx, &rows, `
		SELECT id, total_value, status, business_unit_type, supplier, supplier_document, client, regional, branch, created_at
		FROM service_orders
		ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}

	out := make([]models.ServiceOrder, 0, len(rows))
	for _, r := range rows {
		o := models.ServiceOrder{
			ID:               r.ID,
			Status:           r.Status,
			BusinessUnitType: r.BusinessUnitType,
			Supplier:         r.Supplier,
			SupplierDocument: r.SupplierDocument,
			Client:           r.Client,
			Regional:         r.Regional,
			Branch:           r.Branch,
		}
		if r.TotalValue.Valid {
			o.TotalValue = textToValue(&r.TotalValue.String)
		}
		if r.CreatedAt.Valid {
			o.CreatedAt = parseSQLiteTime(r.CreatedAt.String)
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	var out []models.Agent
	err := s.conn.SelectContext(ctx, &out, `SELECT id, name, status, band_key AS bandkey FROM agents ORDER BY seq ASC`)
	return out, err
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run models.Run) error {
	filter := string(run.Filter)
	if filter == "" {
		filter = "{}"
	}
	_, err := s.conn.ExecContext(ctx, `INSERT INTO runs (id, status, started_at, filter) VALUES (?, ?, ?, ?)`,
		run.ID, run.Status, formatSQLiteTime(run.StartedAt), filter)
	return err
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		status, string(summary), formatSQLiteTime(time.Now()), runID)
	return err
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (models.Run, error) {
	var r runRow
	err := s.conn.GetContext(ctx, &r, `SELECT id, started_at, finished_at, status, filter, summary FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Run{}, ErrNotFound
		}
		return models.Run{}, err
	}
	run := models.Run{
		ID:        r.ID,
		StartedAt: parseSQLiteTime(r.StartedAt),
		Status:    r.Status,
		Filter:    []byte(r.Filter),
	}
	if r.FinishedAt.Valid {
		t := parseSQLiteTime(r.FinishedAt.String)
		run.FinishedAt = &t
	}
	if r.Summary.Valid {
		run.Summary = []byte(r.Summary.String)
	}
	return run, nil
}

func formatSQLiteTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(v string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
