package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CouSixz/Ciborg/internal/models"
)

var (
	ErrNoOrders = errors.New("no service orders to distribute")
	ErrNoAgents = errors.New("no active agents in roster")
)

const (
	ReasonStatusNotMapped = "STATUS_NOT_MAPPED"
	ReasonNoEligibleAgent = "NO_ELIGIBLE_AGENT"
)

type DistributionResult struct {
	Assignments   []models.Assignment          `json:"assignments"`
	Undistributed []models.UndistributedRecord `json:"undistributed"`
	Counts        AssignmentCounter            `json:"counts"`
}

// Distributor runs the assignment loop. Random is shared between runs but
// every run gets its own counter.
type Distributor struct {
	Random RandomSource
	Logger zerolog.Logger
}

// Distribute assigns each order to one agent of its pool or records why it
// could not. Orders are processed sequentially in input order, so a fixed
// random source yields identical output for identical input.
func (d Distributor) Distribute(orders []models.ServiceOrder, roster []models.Agent) (DistributionResult, error) {
	if len(orders) == 0 {
		return DistributionResult{}, ErrNoOrders
	}
	if len(roster) == 0 {
		return DistributionResult{}, ErrNoAgents
	}

	index := NewRosterIndex(roster)
	alloc := NewAllocator(d.Random)
	result := DistributionResult{
		Assignments:   make([]models.Assignment, 0, len(orders)),
		Undistributed: []models.UndistributedRecord{},
	}

	for _, o := range orders {
		value := OrderValue(o)
		route := RouteOrder(o.Status, value)
		status := strings.TrimSpace(o.Status)

		if !route.Routable() {
			result.Undistributed = append(result.Undistributed, models.UndistributedRecord{
				OrderID:    o.ID,
				Reason:     fmt.Sprintf("status %q not mapped to a routing rule", status),
				ReasonCode: ReasonStatusNotMapped,
			})
			d.Logger.Debug().Str("order_id", o.ID).Str("status", status).Msg("status not mapped")
			continue
		}

		candidates := index.Candidates(route.Pool)
		if len(candidates) == 0 {
			result.Undistributed = append(result.Undistributed, models.UndistributedRecord{
				OrderID:    o.ID,
				Reason:     fmt.Sprintf("no eligible agent for the resolved pool %q", route.Pool),
				ReasonCode: ReasonNoEligibleAgent,
				Pool:       string(route.Pool),
			})
			d.Logger.Debug().Str("order_id", o.ID).Str("pool", string(route.Pool)).Msg("no eligible agent")
			continue
		}

		ids := make([]string, len(candidates))
		byID := make(map[string]models.Agent, len(candidates))
		for i, a := range candidates {
			ids[i] = a.ID
			byID[a.ID] = a
		}
		agent := byID[alloc.Allocate(ids)]

		result.Assignments = append(result.Assignments, models.Assignment{
			OrderID:   o.ID,
			AgentID:   agent.ID,
			AgentName: agent.Name,
			Band:      agent.BandKey,
			Value:     value,
			Status:    status,
		})
		d.Logger.Debug().
			Str("order_id", o.ID).
			Str("route", route.Kind.String()).
			Str("pool", string(route.Pool)).
			Str("agent_id", agent.ID).
			Int("agent_count", alloc.Count(agent.ID)).
			Msg("order assigned")
	}

	result.Counts = alloc.Counts()
	return result, nil
}
