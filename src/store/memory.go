package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/models"
)

// MemoryStore is an in-process Store used for local development and tests.
// Every operation takes the lock, so each call is atomic the way a single
// document operation is in MongoDB. Transactions are not supported.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]*models.User
	requests      map[primitive.ObjectID]*models.ConnectionRequest
	requestOrder  []primitive.ObjectID
	notifications map[primitive.ObjectID]*models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[primitive.ObjectID]*models.User),
		requests:      make(map[primitive.ObjectID]*models.ConnectionRequest),
		notifications: make(map[primitive.ObjectID]*models.Notification),
	}
}

func copyUser(u *models.User) models.User {
	out := *u
	out.Password = ""
	out.Connections = append([]primitive.ObjectID{}, u.Connections...)
	out.Skills = append([]string(nil), u.Skills...)
	return out
}

func (s *MemoryStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Id.IsZero() {
		user.Id = primitive.NewObjectID()
	}
	if user.Connections == nil {
		user.Connections = []primitive.ObjectID{}
	}
	stored := *user
	stored.Connections = append([]primitive.ObjectID{}, user.Connections...)
	s.users[user.Id] = &stored
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyUser(u)
	return &out, nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (s *MemoryStore) SuggestUsers(_ context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	skip := make(map[primitive.ObjectID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	users := []models.User{}
	for _, u := range s.users {
		if skip[u.Id] {
			continue
		}
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Id.Hex() < users[j].Id.Hex()
	})
	if limit > 0 && int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *MemoryStore) AddConnection(_ context.Context, user, other primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user]
	if !ok {
		return false, ErrNotFound
	}
	if u.IsConnectedTo(other) {
		return false, nil
	}
	u.Connections = append(u.Connections, other)
	return true, nil
}

func (s *MemoryStore) RemoveConnection(_ context.Context, user, other primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[user]
	if !ok {
		return false, nil
	}
	kept := u.Connections[:0]
	removed := false
	for _, conn := range u.Connections {
		if conn == other {
			removed = true
			continue
		}
		kept = append(kept, conn)
	}
	u.Connections = kept
	return removed, nil
}

func (s *MemoryStore) InsertRequest(_ context.Context, req *models.ConnectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Id.IsZero() {
		req.Id = primitive.NewObjectID()
	}
	stored := *req
	s.requests[req.Id] = &stored
	s.requestOrder = append(s.requestOrder, req.Id)
	return nil
}

func (s *MemoryStore) FindRequestByID(_ context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *req
	return &out, nil
}

func (s *MemoryStore) TransitionRequest(_ context.Context, id, recipient primitive.ObjectID, from, to models.ConnectionStatus, at time.Time) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok || req.Recipient != recipient || req.Status != from {
		return nil, ErrNotFound
	}
	req.Status = to
	req.UpdatedAt = at
	out := *req
	return &out, nil
}

func (s *MemoryStore) FindPendingForRecipient(_ context.Context, recipient primitive.ObjectID) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := []models.ConnectionRequest{}
	// newest first
	for i := len(s.requestOrder) - 1; i >= 0; i-- {
		req := s.requests[s.requestOrder[i]]
		if req.Recipient == recipient && req.Status == models.ConnectionStatusPending {
			requests = append(requests, *req)
		}
	}
	return requests, nil
}

func (s *MemoryStore) FindPendingBetween(_ context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.requestOrder {
		req := s.requests[id]
		if req.Status != models.ConnectionStatusPending {
			continue
		}
		if (req.Sender == a && req.Recipient == b) || (req.Sender == b && req.Recipient == a) {
			out := *req
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Id.IsZero() {
		n.Id = primitive.NewObjectID()
	}
	stored := *n
	s.notifications[n.Id] = &stored
	return nil
}

func (s *MemoryStore) FindNotificationsForRecipient(_ context.Context, recipient primitive.ObjectID) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := []models.Notification{}
	for _, n := range s.notifications {
		if n.Recipient == recipient {
			notifications = append(notifications, *n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id, recipient primitive.ObjectID, at time.Time) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipient {
		return nil, ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = at
	out := *n
	return &out, nil
}

func (s *MemoryStore) DeleteNotification(_ context.Context, id, recipient primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.Recipient != recipient {
		return ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *MemoryStore) RunInTransaction(context.Context, func(ctx context.Context) error) error {
	return ErrTransactionsUnsupported
}
