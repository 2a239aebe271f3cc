package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/CouSixz/Ciborg/internal/models"
	"github.com/CouSixz/Ciborg/internal/service"
)

// DefaultDateLayout matches the "Data Criação O.S" column of OS exports.
const DefaultDateLayout = "02/01/2006 15:04:05"

var (
	colOrderID   = []string{"Nº - OS", "Nº da OS", "id", "order_id", "os"}
	colValue     = []string{"VALOR TOTAL", "total_value", "value"}
	colStatus    = []string{"STATUS - OS", "status"}
	colBU        = []string{"TIPO BU", "business_unit_type", "bu"}
	colSupplier  = []string{"FORNECEDOR", "supplier"}
	colDocument  = []string{"CNPJ/CPF", "supplier_document", "document"}
	colClient    = []string{"CLIENTE", "client"}
	colRegional  = []string{"REGIONAL", "regional"}
	colBranch    = []string{"FILIAL", "branch"}
	colCreatedAt = []string{"Data Criação O.S", "created_at", "created"}

	colAgentID     = []string{"UserID", "user_id", "id"}
	colAgentName   = []string{"NOMES", "NOME", "name"}
	colAgentStatus = []string{"STATUS", "status"}
	colAgentBand   = []string{"ALÇADA", "ALCADA", "band", "band_key"}
)

// ParseOrders maps an OS table to service orders. Malformed values and dates
// are kept as absent rather than rejected.
func ParseOrders(t Table, dateLayout string) ([]models.ServiceOrder, []string) {
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	var errs []string
	if !t.HasColumn(colStatus...) {
		errs = append(errs, "orders: status column missing")
		return nil, errs
	}

	out := make([]models.ServiceOrder, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id := t.Field(rec, colOrderID...)
		if id == "" {
			id = fmt.Sprintf("OS-%05d", len(out)+1)
		}
		out = append(out, models.ServiceOrder{
			ID:               id,
			TotalValue:       ParseValue(t.Field(rec, colValue...)),
			Status:           t.Field(rec, colStatus...),
			BusinessUnitType: t.Field(rec, colBU...),
			Supplier:         t.Field(rec, colSupplier...),
			SupplierDocument: t.Field(rec, colDocument...),
			Client:           t.Field(rec, colClient...),
			Regional:         t.Field(rec, colRegional...),
			Branch:           t.Field(rec, colBranch...),
			CreatedAt:        ParseDate(t.Field(rec, colCreatedAt...), dateLayout),
		})
	}
	return out, errs
}

// ParseAgents maps a team table to agents. Inactive agents are kept; the
// distribution service filters them.
func ParseAgents(t Table) ([]models.Agent, []string) {
	var errs []string
	out := make([]models.Agent, 0, len(t.Rows))
	for i, rec := range t.Rows {
		a := models.Agent{
			ID:      t.Field(rec, colAgentID...),
			Name:    t.Field(rec, colAgentName...),
			Status:  t.Field(rec, colAgentStatus...),
			BandKey: service.NormalizeBandKey(t.Field(rec, colAgentBand...)),
		}
		if a.ID == "" || a.Name == "" {
			errs = append(errs, fmt.Sprintf("team row %d: id and name required", i+2))
			continue
		}
		out = append(out, a)
	}
	return out, errs
}

// ParseValue reads plain ("1234.56") and pt-BR ("1.234,56", "R$ 7.500",
// "2.500") amounts. Anything else is absent.
func ParseValue(raw string) decimal.NullDecimal {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "R$")
	v = strings.ReplaceAll(v, " ", "")
	v = strings.ReplaceAll(v, "\u00a0", "")
	if v == "" {
		return decimal.NullDecimal{}
	}
	switch {
	case strings.Contains(v, ","):
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	case thousandsGrouped(v):
		v = strings.ReplaceAll(v, ".", "")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// thousandsGrouped matches dot-grouped integers such as "2.500" or
// "1.234.567": a 1-3 digit lead without a leading zero, then groups of
// exactly three digits.
func thousandsGrouped(v string) bool {
	groups := strings.Split(strings.TrimPrefix(v, "-"), ".")
	if len(groups) < 2 {
		return false
	}
	head := groups[0]
	if len(head) == 0 || len(head) > 3 || head[0] == '0' || !allDigits(head) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseDate tries the configured layout, RFC3339 and Excel serial dates.
// Unparseable input yields the zero time.
func ParseDate(raw, layout string) time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}
	}
	for _, l := range []string{layout, "02/01/2006", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(l, v, time.UTC); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
