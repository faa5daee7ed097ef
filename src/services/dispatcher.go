package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/emails"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/store"
)

const (
	effectNotification = "notification"
	effectRealtime     = "realtime"
	effectEmail        = "email"
)

// ErrorSink receives failures of detached side effects
type ErrorSink interface {
	Report(effect string, err error)
}

// LogSink logs failures and counts them
type LogSink struct {
	Metrics *observability.Metrics
}

func (s LogSink) Report(effect string, err error) {
	log.Printf("[Dispatcher] %s failed: %v", effect, err)
	if s.Metrics != nil {
		s.Metrics.SideEffectFailures.WithLabelValues(effect).Inc()
	}
}

type DispatcherConfig struct {
	ClientURL string
	Timeout   time.Duration
}

// Dispatcher runs the side effects of an accepted request in the background:
// the in-app notification, the realtime event and the email to the sender.
// Failures are reported to the sink and never reach the caller.
type Dispatcher struct {
	store     store.Store
	mailer    emails.Sender
	publisher Publisher
	sink      ErrorSink
	cfg       DispatcherConfig
	now       func() time.Time

	wg sync.WaitGroup
}

// NewDispatcher builds a dispatcher. publisher may be nil to disable realtime events.
func NewDispatcher(st store.Store, mailer emails.Sender, publisher Publisher, sink ErrorSink, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		store:     st,
		mailer:    mailer,
		publisher: publisher,
		sink:      sink,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (d *Dispatcher) ConnectionAccepted(req models.ConnectionRequest) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.sink.Report("dispatch", fmt.Errorf("panic: %v", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()

		d.notify(ctx, req)
		if err := d.sendEmail(ctx, req); err != nil {
			d.sink.Report(effectEmail, err)
		}
	}()
}

// Wait blocks until every dispatched side effect has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) notify(ctx context.Context, req models.ConnectionRequest) {
	now := d.now()
	notification := &models.Notification{
		Recipient:   req.Sender,
		Type:        models.NotificationTypeConnectionAccepted,
		RelatedUser: req.Recipient,
		Read:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := models.Validate(notification); err != nil {
		d.sink.Report(effectNotification, err)
		return
	}
	if err := d.store.InsertNotification(ctx, notification); err != nil {
		d.sink.Report(effectNotification, err)
		return
	}

	if d.publisher == nil {
		return
	}
	event := newConnectionAcceptedEvent(notification, req.Id)
	if err := d.publisher.Publish(ctx, req.Sender, event); err != nil {
		d.sink.Report(effectRealtime, err)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, req models.ConnectionRequest) error {
	users, err := d.store.FindUsersByIDs(ctx, []primitive.ObjectID{req.Sender, req.Recipient})
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	var sender, recipient *models.User
	for i := range users {
		switch users[i].Id {
		case req.Sender:
			sender = &users[i]
		case req.Recipient:
			recipient = &users[i]
		}
	}
	if sender == nil || recipient == nil {
		return errors.New("sender or recipient no longer exists")
	}

	profileURL := strings.TrimRight(d.cfg.ClientURL, "/") + "/profile/" + recipient.Username
	return d.mailer.SendConnectionAccepted(ctx, sender.Email, sender.Name, recipient.Name, profileURL)
}
