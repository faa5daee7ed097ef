package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/store"
)

func TestGraph_LinkIsIdempotentAndSymmetric(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	g := NewGraph(st, newMetrics())
	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")

	require.NoError(t, g.Link(ctx, a.Id, b.Id))
	require.NoError(t, g.Link(ctx, b.Id, a.Id))

	assert.Equal(t, []primitive.ObjectID{b.Id}, reload(t, st, a.Id).Connections)
	assert.Equal(t, []primitive.ObjectID{a.Id}, reload(t, st, b.Id).Connections)
}

func TestGraph_LinkCompensatesOnlyWhatItAdded(t *testing.T) {
	ctx := context.Background()
	st := newFaultyStore()
	metrics := newMetrics()
	g := NewGraph(st, metrics)
	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")

	// a already lists b from an earlier half-finished link
	_, err := st.AddConnection(ctx, a.Id, b.Id)
	require.NoError(t, err)

	st.failAdd[b.Id] = errBoom
	err = g.Link(ctx, a.Id, b.Id)
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []primitive.ObjectID{b.Id}, reload(t, st, a.Id).Connections, "pre-existing edge kept")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Compensations.WithLabelValues("link")))
}

func TestGraph_UnlinkWithoutEdge(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	metrics := newMetrics()
	g := NewGraph(st, metrics)
	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")

	require.NoError(t, g.Unlink(ctx, a.Id, b.Id))
	require.NoError(t, g.Unlink(ctx, a.Id, primitive.NewObjectID()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Compensations.WithLabelValues("unlink")))
}

func TestGraph_CompensationSurvivesCanceledContext(t *testing.T) {
	st := newFaultyStore()
	g := NewGraph(st, newMetrics())
	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")
	st.failAdd[b.Id] = errBoom

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, g.Link(ctx, a.Id, b.Id))
	assert.Empty(t, reload(t, st, a.Id).Connections)
}
