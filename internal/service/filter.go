package service

import (
	"strings"
	"time"

	"github.com/CouSixz/Ciborg/internal/models"
)

// Tab is a business-unit screen. Each tab covers a fixed set of BU types.
type Tab string

const (
	TabAll Tab = ""
	TabRAC Tab = "RAC"
	TabGTF Tab = "GTF"
	TabZKM Tab = "ZKM"
)

var tabUnits = map[Tab][]string{
	TabRAC: {"RAC", "Moover"},
	TabGTF: {"GTF"},
	TabZKM: {"Zero KM"},
}

func Tabs() []Tab {
	return []Tab{TabRAC, TabGTF, TabZKM}
}

func ParseTab(v string) (Tab, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return TabAll, true
	}
	for _, t := range Tabs() {
		if strings.EqualFold(v, string(t)) {
			return t, true
		}
	}
	return TabAll, false
}

// Includes reports whether an order of the given BU type shows on the tab.
func (t Tab) Includes(businessUnit string) bool {
	if t == TabAll {
		return true
	}
	bu := strings.TrimSpace(businessUnit)
	for _, u := range tabUnits[t] {
		if strings.EqualFold(bu, u) {
			return true
		}
	}
	return false
}

// OrderFilter narrows the order set before distribution. Empty selections
// do not filter.
type OrderFilter struct {
	Tab       Tab      `json:"tab"`
	Suppliers []string `json:"suppliers,omitempty"`
	Bands     []string `json:"bands,omitempty"`
}

func (f OrderFilter) Match(o models.ServiceOrder) bool {
	if !f.Tab.Includes(o.BusinessUnitType) {
		return false
	}
	if len(f.Suppliers) > 0 && !containsTrimmed(f.Suppliers, o.Supplier) {
		return false
	}
	if len(f.Bands) > 0 {
		label := orderBandLabel(o)
		ok := false
		for _, b := range f.Bands {
			if band, known := ParseBand(b); known && band.Label() == label {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// FilterOrders keeps matching orders in input order.
func FilterOrders(orders []models.ServiceOrder, f OrderFilter) []models.ServiceOrder {
	out := make([]models.ServiceOrder, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

// PrepareOrders fills the derived band and days-open fields.
func PrepareOrders(orders []models.ServiceOrder, now time.Time) []models.ServiceOrder {
	out := make([]models.ServiceOrder, len(orders))
	for i, o := range orders {
		o.Band = BandFor(OrderValue(o)).Label()
		o.DaysOpen = DaysOpen(o.CreatedAt, now)
		out[i] = o
	}
	return out
}

func DaysOpen(createdAt, now time.Time) int {
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0
	}
	return int(now.Sub(createdAt).Hours() / 24)
}

func orderBandLabel(o models.ServiceOrder) string {
	if o.Band != "" {
		return o.Band
	}
	return BandFor(OrderValue(o)).Label()
}

func containsTrimmed(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.TrimSpace(v) == target {
			return true
		}
	}
	return false
}
