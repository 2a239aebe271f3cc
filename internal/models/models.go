package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ServiceOrder struct {
	ID               string              `json:"id"`
	TotalValue       decimal.NullDecimal `json:"total_value"`
	Status           string              `json:"status"`
	BusinessUnitType string              `json:"business_unit_type"`
	Supplier         string              `json:"supplier"`
	SupplierDocument string              `json:"supplier_document"`
	Client           string              `json:"client"`
	Regional         string              `json:"regional"`
	Branch           string              `json:"branch"`
	CreatedAt        time.Time           `json:"created_at"`
	DaysOpen         int                 `json:"days_open"`
	Band             string              `json:"band,omitempty"`
}

type Agent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	BandKey string `json:"band_key"`
}

// Assignment fields are declared in export column order.
type Assignment struct {
	OrderID   string          `json:"order_id"`
	AgentID   string          `json:"agent_id"`
	AgentName string          `json:"agent_name"`
	Band      string          `json:"band"`
	Value     decimal.Decimal `json:"value"`
	Status    string          `json:"status"`
}

type UndistributedRecord struct {
	OrderID    string `json:"order_id"`
	Reason     string `json:"reason"`
	ReasonCode string `json:"reason_code"`
	Pool       string `json:"pool,omitempty"`
}

type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Filter     json.RawMessage `json:"filter"`
	Summary    json.RawMessage `json:"summary"`
}
