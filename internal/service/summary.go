package service

import (
	"sort"
	"strings"
	"time"

	"github.com/CouSixz/Ciborg/internal/models"
)

const unidentifiedSupplier = "unidentified"

type CountItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type StatusCard struct {
	Status string `json:"status"`
	Short  string `json:"short"`
	Count  int    `json:"count"`
}

type AgedOrder struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	DaysOpen  int       `json:"days_open"`
}

// Summary is the per-tab dashboard data.
type Summary struct {
	Tab                 Tab          `json:"tab"`
	Total               int          `json:"total"`
	Bands               []CountItem  `json:"bands"`
	Statuses            []StatusCard `json:"statuses"`
	Regionals           []CountItem  `json:"regionals"`
	Branches            []CountItem  `json:"branches"`
	Suppliers           []CountItem  `json:"suppliers"`
	Clients             []CountItem  `json:"clients"`
	SuppliersByDocument []CountItem  `json:"suppliers_by_document"`
	Oldest              []AgedOrder  `json:"oldest"`
}

// Summarize aggregates orders already restricted to one tab. Orders must have
// gone through PrepareOrders for the aging list to be meaningful.
func Summarize(tab Tab, orders []models.ServiceOrder, topN int) Summary {
	if topN <= 0 {
		topN = 20
	}
	s := Summary{Tab: tab, Total: len(orders)}

	bandCounts := map[string]int{}
	for _, o := range orders {
		bandCounts[orderBandLabel(o)]++
	}
	for _, b := range Bands() {
		s.Bands = append(s.Bands, CountItem{Label: b.Label(), Count: bandCounts[b.Label()]})
	}

	statusCounts := map[string]int{}
	for _, o := range orders {
		if rule, ok := LookupStatus(o.Status); ok {
			statusCounts[rule.Status]++
		}
	}
	for _, r := range statusRules {
		s.Statuses = append(s.Statuses, StatusCard{Status: r.Status, Short: r.Short, Count: statusCounts[r.Status]})
	}

	s.Regionals = topCounts(orders, topN, func(o models.ServiceOrder) string { return o.Regional })
	s.Branches = topCounts(orders, topN, func(o models.ServiceOrder) string { return o.Branch })
	s.Suppliers = topCounts(orders, topN, func(o models.ServiceOrder) string { return o.Supplier })
	s.Clients = topCounts(orders, topN, func(o models.ServiceOrder) string { return o.Client })
	s.SuppliersByDocument = suppliersByDocument(orders, topN)
	s.Oldest = oldestOrders(orders, topN)
	return s
}

func topCounts(orders []models.ServiceOrder, n int, key func(models.ServiceOrder) string) []CountItem {
	counts := map[string]int{}
	for _, o := range orders {
		k := strings.TrimSpace(key(o))
		if k == "" {
			continue
		}
		counts[k]++
	}
	return rankCounts(counts, n)
}

func suppliersByDocument(orders []models.ServiceOrder, n int) []CountItem {
	counts := map[string]int{}
	names := map[string]string{}
	for _, o := range orders {
		doc := strings.TrimSpace(o.SupplierDocument)
		if doc == "" {
			continue
		}
		counts[doc]++
		if name := strings.TrimSpace(o.Supplier); name != "" {
			names[doc] = name
		}
	}

	byName := map[string]int{}
	for doc, c := range counts {
		name, ok := names[doc]
		if !ok {
			name = unidentifiedSupplier
		}
		byName[name] += c
	}
	return rankCounts(byName, n)
}

func rankCounts(counts map[string]int, n int) []CountItem {
	out := make([]CountItem, 0, len(counts))
	for k, c := range counts {
		out = append(out, CountItem{Label: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Label < out[j].Label
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func oldestOrders(orders []models.ServiceOrder, n int) []AgedOrder {
	out := make([]AgedOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, AgedOrder{ID: o.ID, CreatedAt: o.CreatedAt, DaysOpen: o.DaysOpen})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysOpen > out[j].DaysOpen
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
