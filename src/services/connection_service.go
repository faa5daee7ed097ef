package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/lib/apperr"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/store"
)

// AcceptanceNotifier is told about every accepted request. It must not block.
type AcceptanceNotifier interface {
	ConnectionAccepted(req models.ConnectionRequest)
}

type Options struct {
	// StrictSend refuses requests to oneself, to missing or already connected
	// users and between users with a pending request in either direction
	StrictSend bool
}

// ConnectionService owns the connection request lifecycle and the status resolver
type ConnectionService struct {
	store    store.Store
	graph    *Graph
	notifier AcceptanceNotifier
	metrics  *observability.Metrics
	opts     Options
	now      func() time.Time
}

func NewConnectionService(st store.Store, notifier AcceptanceNotifier, metrics *observability.Metrics, opts Options) *ConnectionService {
	if metrics == nil {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	return &ConnectionService{
		store:    st,
		graph:    NewGraph(st, metrics),
		notifier: notifier,
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
	}
}

// Send creates a pending request from sender to recipient
func (s *ConnectionService) Send(ctx context.Context, sender, recipient primitive.ObjectID) (*models.ConnectionRequest, error) {
	if recipient.IsZero() {
		return nil, apperr.Validation("User ID is required")
	}
	if s.opts.StrictSend {
		if err := s.checkSendable(ctx, sender, recipient); err != nil {
			return nil, err
		}
	}

	now := s.now()
	req := &models.ConnectionRequest{
		Sender:    sender,
		Recipient: recipient,
		Status:    models.ConnectionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := models.Validate(req); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid connection request", Err: err}
	}

	if err := s.store.InsertRequest(ctx, req); err != nil {
		return nil, apperr.Internal("Failed to send connection request", err)
	}

	s.metrics.Transitions.WithLabelValues("sent").Inc()
	return req, nil
}

func (s *ConnectionService) checkSendable(ctx context.Context, sender, recipient primitive.ObjectID) error {
	if sender == recipient {
		return apperr.Validation("You can't send a connection request to yourself")
	}

	target, err := s.store.FindUserByID(ctx, recipient)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Internal("Server error", err)
	}
	if target.IsConnectedTo(sender) {
		return apperr.Conflict("You are already connected with this user")
	}

	_, err = s.store.FindPendingBetween(ctx, sender, recipient)
	switch {
	case err == nil:
		return apperr.Conflict("A connection request already exists")
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return apperr.Internal("Server error", err)
	}
}

// Accept moves a pending request addressed to actor to accepted and links
// both users. Notification side effects are dispatched after the response
// outcome is decided and never change it.
func (s *ConnectionService) Accept(ctx context.Context, requestID, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	var accepted *models.ConnectionRequest
	err := s.store.RunInTransaction(ctx, func(tx context.Context) error {
		req, err := s.markAccepted(tx, requestID, actor)
		if err != nil {
			return err
		}
		if err := s.graph.linkSequential(tx, req.Sender, req.Recipient); err != nil {
			return linkError(err)
		}
		accepted = req
		return nil
	})
	if errors.Is(err, store.ErrTransactionsUnsupported) {
		accepted, err = s.acceptWithCompensation(ctx, requestID, actor)
	}
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Internal("Failed to accept connection request", err)
	}

	s.metrics.Transitions.WithLabelValues("accepted").Inc()
	s.notifier.ConnectionAccepted(*accepted)
	return accepted, nil
}

func (s *ConnectionService) acceptWithCompensation(ctx context.Context, requestID, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	req, err := s.markAccepted(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}

	if err := s.graph.Link(ctx, req.Sender, req.Recipient); err != nil {
		// back to pending so the recipient can retry; the accept was never reported
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()
		if _, rbErr := s.store.TransitionRequest(rctx, requestID, actor, models.ConnectionStatusAccepted, models.ConnectionStatusPending, s.now()); rbErr != nil {
			log.Printf("[ConnectionService] Failed to revert request %s to pending: %v", requestID.Hex(), rbErr)
		}
		return nil, linkError(err)
	}
	return req, nil
}

func (s *ConnectionService) markAccepted(ctx context.Context, requestID, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	req, err := s.store.TransitionRequest(ctx, requestID, actor, models.ConnectionStatusPending, models.ConnectionStatusAccepted, s.now())
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.LostRaces.WithLabelValues("accept").Inc()
		return nil, apperr.NotFound("Connection request not found or already processed")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to accept connection request", err)
	}
	return req, nil
}

func linkError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "User not found", Err: err}
	}
	return apperr.Internal("Failed to update connections", err)
}

// Reject moves a pending request addressed to actor to rejected
func (s *ConnectionService) Reject(ctx context.Context, requestID, actor primitive.ObjectID) (*models.ConnectionRequest, error) {
	req, err := s.store.TransitionRequest(ctx, requestID, actor, models.ConnectionStatusPending, models.ConnectionStatusRejected, s.now())
	if err == nil {
		s.metrics.Transitions.WithLabelValues("rejected").Inc()
		return req, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("Failed to reject connection request", err)
	}

	s.metrics.LostRaces.WithLabelValues("reject").Inc()
	return nil, s.explainRejectMiss(ctx, requestID, actor)
}

// explainRejectMiss re-reads a request the conditional update did not match.
// Checked in order: existence, recipient, status.
func (s *ConnectionService) explainRejectMiss(ctx context.Context, requestID, actor primitive.ObjectID) error {
	current, err := s.store.FindRequestByID(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Connection request not found")
	}
	if err != nil {
		return apperr.Internal("Server error", err)
	}
	if current.Recipient != actor {
		return apperr.Forbidden("Not authorized to reject this request")
	}
	if current.Status != models.ConnectionStatusPending {
		return apperr.Conflict("This request has already been processed")
	}
	// pending again after a reverted accept
	return apperr.Conflict("This request was modified concurrently, try again")
}

// ListPending returns the pending requests addressed to user, newest first,
// each with the sender's public profile
func (s *ConnectionService) ListPending(ctx context.Context, user primitive.ObjectID) ([]models.PendingRequest, error) {
	reqs, err := s.store.FindPendingForRecipient(ctx, user)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	senderIDs := make([]primitive.ObjectID, 0, len(reqs))
	seen := make(map[primitive.ObjectID]struct{}, len(reqs))
	for _, r := range reqs {
		if _, ok := seen[r.Sender]; ok {
			continue
		}
		seen[r.Sender] = struct{}{}
		senderIDs = append(senderIDs, r.Sender)
	}

	senders, err := s.profilesByID(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	result := make([]models.PendingRequest, 0, len(reqs))
	for _, r := range reqs {
		pending := models.PendingRequest{
			ID:        r.Id,
			Recipient: r.Recipient,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if profile, ok := senders[r.Sender]; ok {
			pending.Sender = &profile
		}
		result = append(result, pending)
	}
	return result, nil
}

// ListConnections returns the public profiles of user's connections
func (s *ConnectionService) ListConnections(ctx context.Context, user primitive.ObjectID) ([]models.UserDto, error) {
	current, err := s.store.FindUserByID(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return []models.UserDto{}, nil
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	if len(current.Connections) == 0 {
		return []models.UserDto{}, nil
	}

	users, err := s.store.FindUsersByIDs(ctx, current.Connections)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	result := make([]models.UserDto, 0, len(users))
	for i := range users {
		result = append(result, users[i].PublicProfile())
	}
	return result, nil
}

// RemoveConnection unlinks user and target. Removing a missing connection succeeds.
func (s *ConnectionService) RemoveConnection(ctx context.Context, user, target primitive.ObjectID) error {
	err := s.store.RunInTransaction(ctx, func(tx context.Context) error {
		return s.graph.unlinkSequential(tx, user, target)
	})
	if errors.Is(err, store.ErrTransactionsUnsupported) {
		err = s.graph.Unlink(ctx, user, target)
	}
	if err != nil {
		return apperr.Internal("Failed to remove connection", err)
	}

	s.metrics.Transitions.WithLabelValues("removed").Inc()
	return nil
}

// Resolve reports how current relates to target
func (s *ConnectionService) Resolve(ctx context.Context, current *models.User, target primitive.ObjectID) (*models.StatusResult, error) {
	if current.IsConnectedTo(target) {
		return &models.StatusResult{Status: models.RelationshipConnected}, nil
	}

	req, err := s.store.FindPendingBetween(ctx, current.Id, target)
	if errors.Is(err, store.ErrNotFound) {
		return &models.StatusResult{Status: models.RelationshipNotConnected}, nil
	}
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}

	if req.Sender == current.Id {
		return &models.StatusResult{Status: models.RelationshipPending}, nil
	}
	id := req.Id
	return &models.StatusResult{Status: models.RelationshipReceived, RequestId: &id}, nil
}

func (s *ConnectionService) profilesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserDto, error) {
	profiles := make(map[primitive.ObjectID]models.UserDto, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}
	users, err := s.store.FindUsersByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("Server error", err)
	}
	for i := range users {
		profiles[users[i].Id] = users[i].PublicProfile()
	}
	return profiles, nil
}
