package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/store"
)

var errBoom = errors.New("boom")

func newMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func seedUser(t *testing.T, st store.UserStore, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     username + " name",
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		HeadLine: username + " headline",
	}
	require.NoError(t, st.InsertUser(context.Background(), u))
	return u
}

func reload(t *testing.T, st store.UserStore, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := st.FindUserByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

type recordingNotifier struct {
	mu       sync.Mutex
	accepted []models.ConnectionRequest
}

func (n *recordingNotifier) ConnectionAccepted(req models.ConnectionRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, req)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.accepted)
}

// faultyStore fails graph and notification writes for chosen users
type faultyStore struct {
	*store.MemoryStore
	failAdd                map[primitive.ObjectID]error
	failRemove             map[primitive.ObjectID]error
	failInsertNotification error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: store.NewMemoryStore(),
		failAdd:     map[primitive.ObjectID]error{},
		failRemove:  map[primitive.ObjectID]error{},
	}
}

func (s *faultyStore) AddConnection(ctx context.Context, user, other primitive.ObjectID) (bool, error) {
	if err := s.failAdd[user]; err != nil {
		return false, err
	}
	return s.MemoryStore.AddConnection(ctx, user, other)
}

func (s *faultyStore) RemoveConnection(ctx context.Context, user, other primitive.ObjectID) (bool, error) {
	if err := s.failRemove[user]; err != nil {
		return false, err
	}
	return s.MemoryStore.RemoveConnection(ctx, user, other)
}

func (s *faultyStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if s.failInsertNotification != nil {
		return s.failInsertNotification
	}
	return s.MemoryStore.InsertNotification(ctx, n)
}

// txStore runs transaction bodies inline and counts them
type txStore struct {
	*store.MemoryStore
	mu      sync.Mutex
	txCalls int
}

func (s *txStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCalls++
	s.mu.Unlock()
	return fn(ctx)
}
