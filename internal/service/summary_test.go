package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CouSixz/Ciborg/internal/models"
)

func TestSummarize(t *testing.T) {
	orders := []models.ServiceOrder{
		{ID: "1", Status: StatusPendingN1, Regional: "Sul", Supplier: "Oficina A", SupplierDocument: "111", DaysOpen: 2, TotalValue: decimal.NewNullDecimal(decimal.NewFromInt(100))},
		{ID: "2", Status: "Aguardando Aprovação Movida N2", Regional: "Sul", Supplier: "Oficina B", SupplierDocument: "222", DaysOpen: 9},
		{ID: "3", Status: "Closed", Regional: "Norte", SupplierDocument: "333", DaysOpen: 5, TotalValue: decimal.NewNullDecimal(decimal.NewFromInt(6000))},
		{ID: "4", Status: StatusPendingN1, Regional: "Norte", Supplier: "Oficina A", SupplierDocument: "111", DaysOpen: 9},
	}

	s := Summarize(TabRAC, orders, 0)
	assert.Equal(t, TabRAC, s.Tab)
	assert.Equal(t, 4, s.Total)

	require.Len(t, s.Bands, 4)
	assert.Equal(t, CountItem{Label: "0 to 2.000", Count: 3}, s.Bands[0])
	assert.Equal(t, CountItem{Label: "5.001 to 10.000", Count: 1}, s.Bands[2])

	require.Len(t, s.Statuses, 7)
	assert.Equal(t, StatusPendingAlcada, s.Statuses[0].Status)
	assert.Equal(t, 2, s.Statuses[1].Count)
	assert.Equal(t, 1, s.Statuses[2].Count)

	assert.Equal(t, []CountItem{{Label: "Norte", Count: 2}, {Label: "Sul", Count: 2}}, s.Regionals)
	assert.Equal(t, []CountItem{{Label: "Oficina A", Count: 2}, {Label: "Oficina B", Count: 1}, {Label: "unidentified", Count: 1}}, s.SuppliersByDocument)
	assert.Empty(t, s.Branches)

	require.Len(t, s.Oldest, 4)
	assert.Equal(t, []string{"2", "4", "3", "1"}, []string{s.Oldest[0].ID, s.Oldest[1].ID, s.Oldest[2].ID, s.Oldest[3].ID})
}

func TestSummarizeTopN(t *testing.T) {
	var orders []models.ServiceOrder
	for _, c := range []string{"a", "b", "b", "c", "c", "c"} {
		orders = append(orders, models.ServiceOrder{ID: c, Client: c})
	}
	s := Summarize(TabAll, orders, 2)
	assert.Equal(t, []CountItem{{Label: "c", Count: 3}, {Label: "b", Count: 2}}, s.Clients)
	assert.Len(t, s.Oldest, 2)
}
