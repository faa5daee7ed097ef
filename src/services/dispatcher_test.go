package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/store"
)

type sentMail struct {
	To, SenderName, RecipientName, ProfileURL string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendConnectionAccepted(_ context.Context, to, senderName, recipientName, profileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, senderName, recipientName, profileURL})
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[primitive.ObjectID][]RealtimeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, recipient primitive.ObjectID, event RealtimeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.events == nil {
		p.events = map[primitive.ObjectID][]RealtimeEvent{}
	}
	p.events[recipient] = append(p.events[recipient], event)
	return nil
}

type recordingSink struct {
	mu      sync.Mutex
	effects []string
}

func (s *recordingSink) Report(effect string, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, effect)
}

func acceptedRequest(sender, recipient primitive.ObjectID) models.ConnectionRequest {
	return models.ConnectionRequest{
		Id:        primitive.NewObjectID(),
		Sender:    sender,
		Recipient: recipient,
		Status:    models.ConnectionStatusAccepted,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestDispatcher_ConnectionAccepted(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	mailer := &recordingMailer{}
	publisher := &recordingPublisher{}
	sink := &recordingSink{}
	d := NewDispatcher(st, mailer, publisher, sink, DispatcherConfig{ClientURL: "http://localhost:5173/"})

	a := seedUser(t, st, "alice")
	b := seedUser(t, st, "bob")
	req := acceptedRequest(a.Id, b.Id)

	d.ConnectionAccepted(req)
	d.Wait()

	assert.Empty(t, sink.effects)

	notifications, err := st.FindNotificationsForRecipient(ctx, a.Id)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeConnectionAccepted, notifications[0].Type)
	assert.Equal(t, b.Id, notifications[0].RelatedUser)
	assert.False(t, notifications[0].Read)

	require.Len(t, publisher.events[a.Id], 1)
	assert.Equal(t, notifications[0].Id, publisher.events[a.Id][0].NotificationID)
	assert.Equal(t, req.Id, publisher.events[a.Id][0].RequestID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, sentMail{
		To:            "alice@example.com",
		SenderName:    "alice name",
		RecipientName: "bob name",
		ProfileURL:    "http://localhost:5173/profile/bob",
	}, mailer.sent[0])
}

func TestDispatcher_NotificationFailureStillSendsEmail(t *testing.T) {
	st := newFaultyStore()
	st.failInsertNotification = errBoom
	mailer := &recordingMailer{}
	publisher := &recordingPublisher{}
	sink := &recordingSink{}
	d := NewDispatcher(st, mailer, publisher, sink, DispatcherConfig{ClientURL: "http://x"})

	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")

	d.ConnectionAccepted(acceptedRequest(a.Id, b.Id))
	d.Wait()

	assert.Equal(t, []string{effectNotification}, sink.effects)
	assert.Empty(t, publisher.events, "nothing to announce without a stored notification")
	assert.Len(t, mailer.sent, 1)
}

func TestDispatcher_FailuresAreCountedByLogSink(t *testing.T) {
	st := store.NewMemoryStore()
	metrics := newMetrics()
	mailer := &recordingMailer{err: errBoom}
	publisher := &recordingPublisher{err: errBoom}
	d := NewDispatcher(st, mailer, publisher, LogSink{Metrics: metrics}, DispatcherConfig{})

	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")

	d.ConnectionAccepted(acceptedRequest(a.Id, b.Id))
	d.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SideEffectFailures.WithLabelValues(effectRealtime)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SideEffectFailures.WithLabelValues(effectEmail)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SideEffectFailures.WithLabelValues(effectNotification)))
}

func TestDispatcher_MissingUserSkipsEmail(t *testing.T) {
	st := store.NewMemoryStore()
	mailer := &recordingMailer{}
	sink := &recordingSink{}
	d := NewDispatcher(st, mailer, nil, sink, DispatcherConfig{})

	b := seedUser(t, st, "b")

	d.ConnectionAccepted(acceptedRequest(primitive.NewObjectID(), b.Id))
	d.Wait()

	assert.Equal(t, []string{effectEmail}, sink.effects)
	assert.Empty(t, mailer.sent)
}

func TestDispatcher_DoesNotBlockAcceptance(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	release := make(chan struct{})
	mailer := &blockingMailer{release: release}
	d := NewDispatcher(st, mailer, nil, &recordingSink{}, DispatcherConfig{Timeout: time.Minute})
	svc := NewConnectionService(st, d, newMetrics(), Options{})

	a := seedUser(t, st, "a")
	b := seedUser(t, st, "b")
	req, err := svc.Send(ctx, a.Id, b.Id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Accept(ctx, req.Id, b.Id)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("accept waited for the email")
	}

	close(release)
	d.Wait()
}

type blockingMailer struct {
	release chan struct{}
}

func (m *blockingMailer) SendConnectionAccepted(ctx context.Context, _, _, _, _ string) error {
	select {
	case <-m.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
