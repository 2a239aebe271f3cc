package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(OrdersAssignedTotal.WithLabelValues("N2"))
	runsBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("SUCCESS"))

	ObserveRun(RunObservation{
		Status:          "SUCCESS",
		Duration:        20 * time.Millisecond,
		Orders:          7,
		AssignedByPool:  map[string]int{"N2": 3},
		UndistributedBy: map[string]int{"STATUS_NOT_MAPPED": 4},
	})

	assert.Equal(t, before+3, testutil.ToFloat64(OrdersAssignedTotal.WithLabelValues("N2")))
	assert.Equal(t, runsBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("SUCCESS")))
	assert.Equal(t, float64(7), testutil.ToFloat64(LastRunOrders))
	assert.GreaterOrEqual(t, testutil.ToFloat64(OrdersUndistributedTotal.WithLabelValues("STATUS_NOT_MAPPED")), float64(4))
}
