package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionRequest is a directional proposal from Sender to Recipient.
// Only the recipient may move it out of pending, and it is never deleted.
type ConnectionRequest struct {
	Id        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Sender    primitive.ObjectID `json:"sender" bson:"sender" validate:"required"`
	Recipient primitive.ObjectID `json:"recipient" bson:"recipient" validate:"required"`
	Status    ConnectionStatus   `json:"status" bson:"status" validate:"required,oneof=pending accepted rejected"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt" validate:"required"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusRejected ConnectionStatus = "rejected"
)

// CanTransitionTo reports whether s -> next is a legal lifecycle step
func (s ConnectionStatus) CanTransitionTo(next ConnectionStatus) bool {
	if s != ConnectionStatusPending {
		return false
	}
	return next == ConnectionStatusAccepted || next == ConnectionStatusRejected
}

// PendingRequest is a pending request with the sender's public profile attached.
// Sender is nil when the sending user no longer exists.
type PendingRequest struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    *UserDto           `json:"sender"`
	Recipient primitive.ObjectID `json:"recipient"`
	Status    ConnectionStatus   `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// RelationshipStatus is the derived state between two users
type RelationshipStatus string

const (
	RelationshipConnected    RelationshipStatus = "connected"
	RelationshipPending      RelationshipStatus = "pending"
	RelationshipReceived     RelationshipStatus = "received"
	RelationshipNotConnected RelationshipStatus = "not_connected"
)

type StatusResult struct {
	Status    RelationshipStatus  `json:"status"`
	RequestId *primitive.ObjectID `json:"requestId,omitempty"`
}
