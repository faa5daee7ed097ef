package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Transitions.WithLabelValues("sent").Inc()
	m.Transitions.WithLabelValues("sent").Inc()
	m.SideEffectFailures.WithLabelValues("email").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SideEffectFailures.WithLabelValues("email")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "talentnest_connections_transitions_total")
	assert.Contains(t, names, "talentnest_connections_side_effect_failures_total")
}

func TestNewMetrics_IsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
