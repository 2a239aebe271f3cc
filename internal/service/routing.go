package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Pool identifies a group of agents allowed to take an order.
type Pool string

// PoolN2 is the senior tier that receives every escalated order.
const PoolN2 Pool = "N2"

// RouteKind is the closed set of routing categories.
type RouteKind int

const (
	RouteUnroutable RouteKind = iota
	RouteEscalated
	RouteValueBand
)

func (k RouteKind) String() string {
	switch k {
	case RouteEscalated:
		return "escalated"
	case RouteValueBand:
		return "value_band"
	case RouteUnroutable:
		return "unroutable"
	}
	return "unknown"
}

type Route struct {
	Kind RouteKind
	Pool Pool
	Band Band
}

func (r Route) Routable() bool {
	return r.Kind != RouteUnroutable
}

const (
	StatusPendingAlcada   = "pending alcada approval"
	StatusPendingN1       = "pending approval tier N1"
	StatusPendingN2       = "pending approval tier N2"
	StatusPendingN3       = "pending approval tier N3"
	StatusPendingN4       = "pending approval tier N4"
	StatusPendingNQ       = "pending approval tier NQ"
	StatusQualificationNQ = "pending qualification NQ"
)

// StatusRule binds one tracked status to its routing category. Aliases are
// the spellings found in exported OS spreadsheets.
type StatusRule struct {
	Status  string
	Short   string
	Kind    RouteKind
	Aliases []string
}

var statusRules = []StatusRule{
	{Status: StatusPendingAlcada, Short: "Alçada approval", Kind: RouteEscalated, Aliases: []string{"Aguardando Aprovação da Alçada"}},
	{Status: StatusPendingN1, Short: "Approval N1", Kind: RouteValueBand, Aliases: []string{"Aguardando Aprovação Movida N1"}},
	{Status: StatusPendingN2, Short: "Approval N2", Kind: RouteEscalated, Aliases: []string{"Aguardando Aprovação Movida N2"}},
	{Status: StatusPendingN3, Short: "Approval N3", Kind: RouteEscalated, Aliases: []string{"Aguardando Aprovação Movida N3"}},
	{Status: StatusPendingN4, Short: "Approval N4", Kind: RouteEscalated, Aliases: []string{"Aguardando Aprovação Movida N4"}},
	{Status: StatusPendingNQ, Short: "Approval NQ", Kind: RouteEscalated, Aliases: []string{"Aguardando Aprovação Movida NQ"}},
	{Status: StatusQualificationNQ, Short: "Qualification NQ", Kind: RouteEscalated, Aliases: []string{"Aguardando Qualificação NQ"}},
}

var statusIndex = buildStatusIndex(statusRules)

func buildStatusIndex(rules []StatusRule) map[string]int {
	idx := make(map[string]int, len(rules)*2)
	for i, r := range rules {
		idx[r.Status] = i
		for _, a := range r.Aliases {
			idx[a] = i
		}
	}
	return idx
}

// StatusRules returns the tracked statuses in dashboard order.
func StatusRules() []StatusRule {
	out := make([]StatusRule, len(statusRules))
	copy(out, statusRules)
	return out
}

// LookupStatus finds the rule for a status after trimming surrounding spaces.
func LookupStatus(status string) (StatusRule, bool) {
	i, ok := statusIndex[strings.TrimSpace(status)]
	if !ok {
		return StatusRule{}, false
	}
	return statusRules[i], true
}

// RouteOrder resolves the routing category for an order. Every status maps to
// a route; anything not in the rule table is unroutable.
func RouteOrder(status string, value decimal.Decimal) Route {
	rule, ok := LookupStatus(status)
	if !ok {
		return Route{Kind: RouteUnroutable}
	}
	switch rule.Kind {
	case RouteEscalated:
		return Route{Kind: RouteEscalated, Pool: PoolN2}
	case RouteValueBand:
		b := BandFor(value)
		return Route{Kind: RouteValueBand, Pool: b.Pool(), Band: b}
	case RouteUnroutable:
		return Route{Kind: RouteUnroutable}
	}
	return Route{Kind: RouteUnroutable}
}
