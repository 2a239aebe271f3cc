package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CouSixz/Ciborg/internal/db"
	"github.com/CouSixz/Ciborg/internal/models"
)

type memStore struct {
	mu       sync.Mutex
	orders   []models.ServiceOrder
	agents   []models.Agent
	runs     []models.Run
	finished map[string]string
	listErr  error
}

var _ db.Store = (*memStore)(nil)

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close()                     {}

func (m *memStore) ReplaceDataset(_ context.Context, orders []models.ServiceOrder, agents []models.Agent) (int64, int64, error) {
	m.orders, m.agents = orders, agents
	return int64(len(orders)), int64(len(agents)), nil
}

func (m *memStore) ListOrders(context.Context) ([]models.ServiceOrder, error) {
	return m.orders, m.listErr
}

func (m *memStore) ListAgents(context.Context) ([]models.Agent, error) {
	return m.agents, nil
}

func (m *memStore) CreateRun(_ context.Context, run models.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *memStore) FinishRun(_ context.Context, runID, status string, _ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished == nil {
		m.finished = map[string]string{}
	}
	m.finished[runID] = status
	return nil
}

func (m *memStore) LatestRun(context.Context) (models.Run, error) {
	if len(m.runs) == 0 {
		return models.Run{}, db.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func newProcessing(store db.Store) *ProcessingService {
	return &ProcessingService{
		Store:  store,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func TestProcessingRun(t *testing.T) {
	store := &memStore{
		orders: []models.ServiceOrder{
			order("OS1", StatusPendingN2, 10),
			order("OS2", StatusPendingN1, 100),
			order("OS3", "Closed", 100),
		},
		agents: []models.Agent{
			agent("a", "N2"),
			agent("b", "0 to 2.000"),
			{ID: "c", Name: "Off", Status: "Inativo", BandKey: "N2"},
		},
	}
	store.orders[1].BusinessUnitType = "GTF"
	p := newProcessing(store)

	_, ok := p.Latest()
	require.False(t, ok)

	out, err := p.Run(context.Background(), RunRequest{Seed: "s"})
	require.NoError(t, err)

	assert.Equal(t, RunStatusSuccess, out.Run.Status)
	assert.Equal(t, 3, out.Summary.OrdersLoaded)
	assert.Equal(t, 2, out.Summary.ActiveAgents)
	assert.Equal(t, 2, out.Summary.Assigned)
	assert.Equal(t, map[string]int{"N2": 1, "0 to 2.000": 1}, out.Summary.AssignedByPool)
	assert.Equal(t, map[string]int{ReasonStatusNotMapped: 1}, out.Summary.UndistributedByReason)
	assert.Equal(t, RunStatusSuccess, store.finished[out.Run.ID])

	var summary RunSummary
	require.NoError(t, json.Unmarshal(out.Run.Summary, &summary))
	assert.Equal(t, 2, summary.Assigned)

	latest, ok := p.Latest()
	require.True(t, ok)
	assert.Equal(t, out.Run.ID, latest.Run.ID)
}

func TestProcessingRunAppliesFilter(t *testing.T) {
	store := &memStore{
		orders: []models.ServiceOrder{order("OS1", StatusPendingN2, 10), order("OS2", StatusPendingN2, 10)},
		agents: []models.Agent{agent("a", "N2")},
	}
	store.orders[0].BusinessUnitType = "GTF"
	store.orders[1].BusinessUnitType = "RAC"

	out, err := newProcessing(store).Run(context.Background(), RunRequest{Filter: OrderFilter{Tab: TabGTF}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.OrdersEligible)
	require.Len(t, out.Result.Assignments, 1)
	assert.Equal(t, "OS1", out.Result.Assignments[0].OrderID)
}

func TestProcessingRunPreconditions(t *testing.T) {
	p := newProcessing(&memStore{agents: []models.Agent{agent("a", "N2")}})
	_, err := p.Run(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, ErrNoOrders)

	store := &memStore{
		orders: []models.ServiceOrder{order("OS1", StatusPendingN2, 10)},
		agents: []models.Agent{{ID: "a", Status: "Inativo", BandKey: "N2"}},
	}
	_, err = newProcessing(store).Run(context.Background(), RunRequest{})
	assert.ErrorIs(t, err, ErrNoAgents)
	assert.Empty(t, store.runs)
}

func TestProcessingRunEmptySelectionFailsRun(t *testing.T) {
	store := &memStore{
		orders: []models.ServiceOrder{order("OS1", StatusPendingN2, 10)},
		agents: []models.Agent{agent("a", "N2")},
	}
	p := newProcessing(store)
	_, err := p.Run(context.Background(), RunRequest{Filter: OrderFilter{Tab: TabZKM}})
	assert.ErrorIs(t, err, ErrNoOrders)
	require.Len(t, store.runs, 1)
	assert.Equal(t, RunStatusFailed, store.finished[store.runs[0].ID])

	_, ok := p.Latest()
	assert.False(t, ok)
}

func TestProcessingLoadOrdersError(t *testing.T) {
	p := newProcessing(&memStore{listErr: errors.New("boom")})
	_, err := p.LoadOrders(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestEncodeLogsMarshalFailure(t *testing.T) {
	var buf bytes.Buffer
	s := &ProcessingService{Logger: zerolog.New(&buf)}

	got := s.encode("run-1", "summary", map[string]any{"ratio": math.Inf(1)})
	assert.JSONEq(t, `{}`, string(got))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
	assert.Contains(t, buf.String(), "failed to encode run summary")

	buf.Reset()
	got = s.encode("run-1", "filter", OrderFilter{Tab: TabGTF})
	assert.Contains(t, string(got), `"tab":"GTF"`)
	assert.Empty(t, buf.String())
}
