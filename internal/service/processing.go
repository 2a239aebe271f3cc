package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CouSixz/Ciborg/internal/db"
	"github.com/CouSixz/Ciborg/internal/metrics"
	"github.com/CouSixz/Ciborg/internal/models"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

type RunRequest struct {
	Filter OrderFilter
	Seed   string
}

type RunSummary struct {
	OrdersLoaded          int               `json:"orders_loaded"`
	OrdersEligible        int               `json:"orders_eligible"`
	ActiveAgents          int               `json:"active_agents"`
	Assigned              int               `json:"assigned"`
	Undistributed         int               `json:"undistributed"`
	AssignedByPool        map[string]int    `json:"assigned_by_pool"`
	UndistributedByReason map[string]int    `json:"undistributed_by_reason"`
	AgentCounts           AssignmentCounter `json:"agent_counts"`
	ElapsedMs             int64             `json:"elapsed_ms"`
}

type RunOutcome struct {
	Run     models.Run         `json:"run"`
	Filter  OrderFilter        `json:"filter"`
	Summary RunSummary         `json:"summary"`
	Result  DistributionResult `json:"result"`
}

// ProcessingService loads the current dataset, runs the distributor over it
// and keeps the latest outcome for export.
type ProcessingService struct {
	Store       db.Store
	Logger      zerolog.Logger
	DefaultSeed string
	Now         func() time.Time

	mu     sync.RWMutex
	latest *RunOutcome
}

func (s *ProcessingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// LoadOrders returns the stored orders with derived fields filled.
func (s *ProcessingService) LoadOrders(ctx context.Context) ([]models.ServiceOrder, error) {
	orders, err := s.Store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return PrepareOrders(orders, s.now()), nil
}

func (s *ProcessingService) Run(ctx context.Context, req RunRequest) (RunOutcome, error) {
	orders, err := s.LoadOrders(ctx)
	if err != nil {
		return RunOutcome{}, err
	}
	agents, err := s.Store.ListAgents(ctx)
	if err != nil {
		return RunOutcome{}, fmt.Errorf("list agents: %w", err)
	}
	active := ActiveAgents(agents)

	if len(orders) == 0 {
		return RunOutcome{}, ErrNoOrders
	}
	if len(active) == 0 {
		return RunOutcome{}, ErrNoAgents
	}

	eligible := FilterOrders(orders, req.Filter)
	start := time.Now()
	run := models.Run{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Status:    RunStatusRunning,
	}
	run.Filter = s.encode(run.ID, "filter", req.Filter)
	if err := s.Store.CreateRun(ctx, run); err != nil {
		return RunOutcome{}, fmt.Errorf("create run: %w", err)
	}

	seed := req.Seed
	if seed == "" {
		seed = s.DefaultSeed
	}
	dist := Distributor{Random: NewRandomSource(seed), Logger: s.Logger}
	result, err := dist.Distribute(eligible, active)
	if err != nil {
		s.finish(ctx, run.ID, RunStatusFailed, s.encode(run.ID, "summary", map[string]any{"error": err.Error()}))
		metrics.RunsTotal.WithLabelValues(RunStatusFailed).Inc()
		return RunOutcome{}, err
	}

	summary := summarizeRun(len(orders), len(eligible), len(active), result)
	summary.ElapsedMs = time.Since(start).Milliseconds()
	summaryJSON := s.encode(run.ID, "summary", summary)
	s.finish(ctx, run.ID, RunStatusSuccess, summaryJSON)
	metrics.ObserveRun(metrics.RunObservation{
		Status:          RunStatusSuccess,
		Duration:        time.Since(start),
		Orders:          len(eligible),
		AssignedByPool:  summary.AssignedByPool,
		UndistributedBy: summary.UndistributedByReason,
	})

	s.Logger.Info().
		Str("run_id", run.ID).
		Str("tab", string(req.Filter.Tab)).
		Int("orders", len(eligible)).
		Int("assigned", summary.Assigned).
		Int("undistributed", summary.Undistributed).
		Msg("distribution run finished")

	finished := s.now()
	run.Status = RunStatusSuccess
	run.FinishedAt = &finished
	run.Summary = summaryJSON
	outcome := RunOutcome{Run: run, Filter: req.Filter, Summary: summary, Result: result}

	s.mu.Lock()
	s.latest = &outcome
	s.mu.Unlock()
	return outcome, nil
}

// Latest returns the outcome of the most recent successful run of this process.
func (s *ProcessingService) Latest() (RunOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return RunOutcome{}, false
	}
	return *s.latest, true
}

func (s *ProcessingService) finish(ctx context.Context, runID, status string, summary json.RawMessage) {
	if err := s.Store.FinishRun(ctx, runID, status, summary); err != nil {
		s.Logger.Error().Err(err).Str("run_id", runID).Msg("failed to finish run")
	}
}

// encode falls back to an empty object so the run record stays valid JSON.
func (s *ProcessingService) encode(runID, what string, v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		s.Logger.Error().Err(err).Str("run_id", runID).Msgf("failed to encode run %s", what)
		return json.RawMessage("{}")
	}
	return b
}

func summarizeRun(loaded, eligible, agents int, result DistributionResult) RunSummary {
	summary := RunSummary{
		OrdersLoaded:          loaded,
		OrdersEligible:        eligible,
		ActiveAgents:          agents,
		Assigned:              len(result.Assignments),
		Undistributed:         len(result.Undistributed),
		AssignedByPool:        map[string]int{},
		UndistributedByReason: map[string]int{},
		AgentCounts:           result.Counts,
	}
	for _, a := range result.Assignments {
		summary.AssignedByPool[NormalizeBandKey(a.Band)]++
	}
	for _, u := range result.Undistributed {
		summary.UndistributedByReason[u.ReasonCode]++
	}
	return summary
}
