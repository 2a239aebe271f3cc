package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CouSixz/Ciborg/internal/models"
)

type PostgresStore struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{Pool: pool}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	s.Pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ReplaceDataset(ctx context.Context, orders []models.ServiceOrder, agents []models.Agent) (int64, int64, error) {
	var ordersCount, agentsCount int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE service_orders, agents`); err != nil {
			return fmt.Errorf("truncate dataset: %w", err)
		}

		orderRows := make([][]any, 0, len(orders))
		for i, o := range orders {
			orderRows = append(orderRows, []any{
				i + 1, o.ID, valueToText(o.TotalValue), o.Status, o.BusinessUnitType,
				o.Supplier, o.SupplierDocument, o.Client, o.Regional, o.Branch, timeOrNil(o.CreatedAt),
			})
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"service_orders"},
			[]string{"seq", "id", "total_value", "status", "business_unit_type", "supplier", "supplier_document", "client", "regional", "branch", "created_at"},
			pgx.CopyFromRows(orderRows))
		if err != nil {
			return fmt.Errorf("copy orders: %w", err)
		}
		ordersCount = n

		agentRows := make([][]any, 0, len(agents))
		for i, a := range agents {
			agentRows = append(agentRows, []any{i + 1, a.ID, a.Name, a.Status, a.BandKey})
		}
		n, err = tx.CopyFrom(ctx, pgx.Identifier{"agents"},
			[]string{"seq", "id", "name", "status", "band_key"},
			pgx.CopyFromRows(agentRows))
		if err != nil {
			return fmt.Errorf("copy agents: %w", err)
		}
		agentsCount = n
		return nil
	})
	return ordersCount, agentsCount, err
}

func (s *PostgresStore) ListOrders(ctx context.Context) ([]models.ServiceOrder, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, total_value, status, business_unit_type, supplier, supplier_document, client, regional, branch, created_at
		FROM service_orders
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceOrder
	for rows.Next() {
		var (
			o         models.ServiceOrder
			value     *string
			createdAt *time.Time
		)
		if err := rows.Scan(&o.ID, &value, &o.Status, &o.BusinessUnitType, &o.Supplier, &o.SupplierDocument, &o.Client, &o.Regional, &o.Branch, &createdAt); err != nil {
			return nil, err
		}
		o.TotalValue = textToValue(value)
		if createdAt != nil {
			o.CreatedAt = createdAt.UTC()
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, status, band_key FROM agents ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Status, &a.BandKey); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateRun(ctx context.Context, run models.Run) error {
	filter := string(run.Filter)
	if filter == "" {
		filter = "{}"
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, status, started_at, filter) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Status, run.StartedAt.UTC(), filter)
	return err
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, string(summary), runID)
	return err
}

func (s *PostgresStore) LatestRun(ctx context.Context) (models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, filter, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var (
		run     models.Run
		filter  string
		summary *string
	)
	if err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status, &filter, &summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Run{}, ErrNotFound
		}
		return models.Run{}, err
	}
	run.Filter = []byte(filter)
	if summary != nil {
		run.Summary = []byte(*summary)
	}
	return run, nil
}
