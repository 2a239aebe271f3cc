package service

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CouSixz/Ciborg/internal/models"
)

func order(id, status string, value int64) models.ServiceOrder {
	return models.ServiceOrder{
		ID:         id,
		Status:     status,
		TotalValue: decimal.NewNullDecimal(decimal.NewFromInt(value)),
	}
}

func agent(id, key string) models.Agent {
	return models.Agent{ID: id, Name: "Agent " + id, Status: "Active", BandKey: key}
}

func TestDistributeRejectsEmptyInputs(t *testing.T) {
	d := Distributor{Random: fixedSource(0), Logger: zerolog.Nop()}

	_, err := d.Distribute(nil, []models.Agent{agent("a", "N2")})
	assert.ErrorIs(t, err, ErrNoOrders)

	_, err = d.Distribute([]models.ServiceOrder{order("1", StatusPendingN2, 10)}, nil)
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestDistributeRoutesByStatusAndValue(t *testing.T) {
	d := Distributor{Random: fixedSource(0), Logger: zerolog.Nop()}
	roster := []models.Agent{
		agent("senior", "N2"),
		agent("low", "0 to 2.000"),
		agent("mid", "5.001 to 10.000"),
	}
	orders := []models.ServiceOrder{
		order("OS1", StatusPendingN3, 50),
		order("OS2", StatusPendingN1, 1500),
		order("OS3", StatusPendingN1, 7000),
		order("OS4", " "+StatusPendingN1+" ", 3000),
		order("OS5", "Closed", 100),
	}

	res, err := d.Distribute(orders, roster)
	require.NoError(t, err)

	require.Len(t, res.Assignments, 3)
	assert.Equal(t, models.Assignment{OrderID: "OS1", AgentID: "senior", AgentName: "Agent senior", Band: "N2", Value: decimal.NewFromInt(50), Status: StatusPendingN3}, res.Assignments[0])
	assert.Equal(t, "low", res.Assignments[1].AgentID)
	assert.Equal(t, "mid", res.Assignments[2].AgentID)

	require.Len(t, res.Undistributed, 2)
	assert.Equal(t, "OS4", res.Undistributed[0].OrderID)
	assert.Equal(t, ReasonNoEligibleAgent, res.Undistributed[0].ReasonCode)
	assert.Equal(t, "2.001 to 5.000", res.Undistributed[0].Pool)
	assert.Equal(t, "OS5", res.Undistributed[1].OrderID)
	assert.Equal(t, ReasonStatusNotMapped, res.Undistributed[1].ReasonCode)
	assert.Contains(t, res.Undistributed[1].Reason, `"Closed"`)

	assert.Equal(t, AssignmentCounter{"senior": 1, "low": 1, "mid": 1}, res.Counts)
}

func TestDistributePartitionsEveryOrder(t *testing.T) {
	d := Distributor{Random: NewRandomSource("partition"), Logger: zerolog.Nop()}
	roster := []models.Agent{agent("a", "N2"), agent("b", "N2"), agent("c", "0 to 2.000")}

	var orders []models.ServiceOrder
	statuses := []string{StatusPendingN2, StatusPendingN1, "Unknown", StatusPendingAlcada}
	for i := 0; i < 40; i++ {
		orders = append(orders, order(fmt.Sprintf("OS%02d", i), statuses[i%len(statuses)], int64(i*700)))
	}

	res, err := d.Distribute(orders, roster)
	require.NoError(t, err)
	assert.Equal(t, len(orders), len(res.Assignments)+len(res.Undistributed))

	seen := map[string]bool{}
	for _, a := range res.Assignments {
		assert.False(t, seen[a.OrderID])
		seen[a.OrderID] = true
	}
	for _, u := range res.Undistributed {
		assert.False(t, seen[u.OrderID])
		seen[u.OrderID] = true
	}
	assert.Len(t, seen, len(orders))

	total := 0
	for _, n := range res.Counts {
		total += n
	}
	assert.Equal(t, len(res.Assignments), total)
}

func TestDistributeIsBalancedWithinPool(t *testing.T) {
	roster := []models.Agent{agent("a", "N2"), agent("b", "N2"), agent("c", "N2")}
	var orders []models.ServiceOrder
	for i := 0; i < 10; i++ {
		orders = append(orders, order(fmt.Sprintf("OS%d", i), StatusPendingN4, 1))
	}

	for _, seed := range []string{"a", "b", "c", "fair", "2024", "ciborg"} {
		d := Distributor{Random: NewRandomSource(seed), Logger: zerolog.Nop()}
		res, err := d.Distribute(orders, roster)
		require.NoError(t, err, seed)
		require.Len(t, res.Assignments, len(orders), seed)

		// every prefix of the assignment sequence stays within one of even
		running := map[string]int{"a": 0, "b": 0, "c": 0}
		for i, a := range res.Assignments {
			running[a.AgentID]++
			lo, hi := running["a"], running["a"]
			for _, id := range []string{"b", "c"} {
				lo = min(lo, running[id])
				hi = max(hi, running[id])
			}
			assert.LessOrEqual(t, hi-lo, 1, "seed %q after assignment %d", seed, i+1)
		}
		assert.Equal(t, running, map[string]int(res.Counts), seed)
	}
}

func TestDistributeDeterministicWithSeed(t *testing.T) {
	roster := []models.Agent{agent("a", "N2"), agent("b", "N2"), agent("c", "N2"), agent("d", "10.001 and above")}
	var orders []models.ServiceOrder
	for i := 0; i < 25; i++ {
		orders = append(orders, order(fmt.Sprintf("OS%d", i), StatusPendingAlcada, 20000))
	}

	first, err := Distributor{Random: NewRandomSource("seed-1"), Logger: zerolog.Nop()}.Distribute(orders, roster)
	require.NoError(t, err)
	second, err := Distributor{Random: NewRandomSource("seed-1"), Logger: zerolog.Nop()}.Distribute(orders, roster)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDistributeCountersArePerRun(t *testing.T) {
	d := Distributor{Random: fixedSource(0), Logger: zerolog.Nop()}
	roster := []models.Agent{agent("a", "N2"), agent("b", "N2")}
	orders := []models.ServiceOrder{order("1", StatusPendingN2, 1)}

	first, err := d.Distribute(orders, roster)
	require.NoError(t, err)
	second, err := d.Distribute(orders, roster)
	require.NoError(t, err)

	assert.Equal(t, "a", first.Assignments[0].AgentID)
	assert.Equal(t, "a", second.Assignments[0].AgentID)
	assert.Equal(t, AssignmentCounter{"a": 1, "b": 0}, second.Counts)
}

func TestDistributeNoCapacityLeavesCounterUntouched(t *testing.T) {
	d := Distributor{Random: fixedSource(0), Logger: zerolog.Nop()}
	roster := []models.Agent{agent("a", "0 to 2.000")}
	orders := []models.ServiceOrder{order("1", StatusPendingN2, 1), order("2", StatusPendingN1, 20000)}

	res, err := d.Distribute(orders, roster)
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.Len(t, res.Undistributed, 2)
	assert.Empty(t, res.Counts)
}
