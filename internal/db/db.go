package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CouSixz/Ciborg/internal/models"
)

var ErrNotFound = errors.New("not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store keeps the uploaded dataset and run metadata. Orders and agents are
// returned in upload order.
type Store interface {
	Ping(ctx context.Context) error
	Close()
	ReplaceDataset(ctx context.Context, orders []models.ServiceOrder, agents []models.Agent) (int64, int64, error)
	ListOrders(ctx context.Context) ([]models.ServiceOrder, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	CreateRun(ctx context.Context, run models.Run) error
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
	LatestRun(ctx context.Context) (models.Run, error)
}

func Open(ctx context.Context, driver, databaseURL, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		return New(ctx, databaseURL)
	case DriverSQLite, "":
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}

func valueToText(v decimal.NullDecimal) *string {
	if !v.Valid {
		return nil
	}
	s := v.Decimal.String()
	return &s
}

func textToValue(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
