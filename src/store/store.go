package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/models"
)

const (
	UsersCollection         = "users"
	ConnectionsCollection   = "connections"
	NotificationsCollection = "notifications"
)

var (
	// ErrNotFound is returned when no document matches the filter
	ErrNotFound = errors.New("store: document not found")

	// ErrTransactionsUnsupported is returned by RunInTransaction when the
	// deployment cannot run multi-document transactions
	ErrTransactionsUnsupported = errors.New("store: transactions not supported")
)

type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	// FindUsersByIDs returns the users that exist, in no particular order
	FindUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	// SuggestUsers returns up to limit users whose id is not in exclude
	SuggestUsers(ctx context.Context, exclude []primitive.ObjectID, limit int64) ([]models.User, error)

	// AddConnection adds other to user's connection set. added is false when
	// other was already a member. ErrNotFound when user does not exist.
	AddConnection(ctx context.Context, user, other primitive.ObjectID) (added bool, err error)
	// RemoveConnection pulls other from user's connection set. removed is
	// false when there was nothing to pull.
	RemoveConnection(ctx context.Context, user, other primitive.ObjectID) (removed bool, err error)
}

type RequestStore interface {
	InsertRequest(ctx context.Context, req *models.ConnectionRequest) error
	FindRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error)
	// TransitionRequest atomically moves the request from -> to, only if it
	// currently matches {id, recipient, status: from}. ErrNotFound otherwise.
	TransitionRequest(ctx context.Context, id, recipient primitive.ObjectID, from, to models.ConnectionStatus, at time.Time) (*models.ConnectionRequest, error)
	// FindPendingForRecipient lists pending requests, newest first
	FindPendingForRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.ConnectionRequest, error)
	// FindPendingBetween returns the oldest pending request between the
	// unordered pair {a, b}, or ErrNotFound
	FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error)
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	FindNotificationsForRecipient(ctx context.Context, recipient primitive.ObjectID) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipient primitive.ObjectID, at time.Time) (*models.Notification, error)
	DeleteNotification(ctx context.Context, id, recipient primitive.ObjectID) error
}

type Transactor interface {
	// RunInTransaction runs fn inside one multi-document transaction. fn must
	// use the context it is given and may be retried on transient errors.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the full adapter the services are built on
type Store interface {
	UserStore
	RequestStore
	NotificationStore
	Transactor
}
