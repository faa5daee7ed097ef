package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/theleywin/talentnest-connections/src/observability"
	"github.com/theleywin/talentnest-connections/src/store"
)

const compensationTimeout = 5 * time.Second

// Graph maintains the symmetric connection sets stored on user documents.
//
// Outside a transaction the two updates of Link and Unlink touch different
// documents and run concurrently. When one of them fails, the one that
// changed its document is undone. A crash between the two updates and the
// compensation still leaves a one-sided edge.
type Graph struct {
	users   store.UserStore
	metrics *observability.Metrics
}

func NewGraph(users store.UserStore, metrics *observability.Metrics) *Graph {
	return &Graph{users: users, metrics: metrics}
}

// Link adds a and b to each other's connection sets. Already connected users are left as they are.
func (g *Graph) Link(ctx context.Context, a, b primitive.ObjectID) error {
	var addedA, addedB bool

	// plain group: a failure must not cancel the other update mid-flight,
	// otherwise we could not tell whether it needs compensating
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		addedA, err = g.users.AddConnection(ctx, a, b)
		return err
	})
	eg.Go(func() error {
		var err error
		addedB, err = g.users.AddConnection(ctx, b, a)
		return err
	})

	if err := eg.Wait(); err != nil {
		g.compensate(ctx, "link", func(cctx context.Context) {
			if addedA {
				g.undo("link", func() error { _, err := g.users.RemoveConnection(cctx, a, b); return err })
			}
			if addedB {
				g.undo("link", func() error { _, err := g.users.RemoveConnection(cctx, b, a); return err })
			}
		})
		return fmt.Errorf("link users: %w", err)
	}
	return nil
}

// Unlink removes a and b from each other's connection sets. Missing edges are not an error.
func (g *Graph) Unlink(ctx context.Context, a, b primitive.ObjectID) error {
	var removedA, removedB bool

	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		removedA, err = g.users.RemoveConnection(ctx, a, b)
		return err
	})
	eg.Go(func() error {
		var err error
		removedB, err = g.users.RemoveConnection(ctx, b, a)
		return err
	})

	if err := eg.Wait(); err != nil {
		g.compensate(ctx, "unlink", func(cctx context.Context) {
			if removedA {
				g.undo("unlink", func() error { _, err := g.users.AddConnection(cctx, a, b); return err })
			}
			if removedB {
				g.undo("unlink", func() error { _, err := g.users.AddConnection(cctx, b, a); return err })
			}
		})
		return fmt.Errorf("unlink users: %w", err)
	}
	return nil
}

// linkSequential is Link for use inside a transaction, where the session
// does not allow concurrent operations
func (g *Graph) linkSequential(ctx context.Context, a, b primitive.ObjectID) error {
	if _, err := g.users.AddConnection(ctx, a, b); err != nil {
		return fmt.Errorf("link users: %w", err)
	}
	if _, err := g.users.AddConnection(ctx, b, a); err != nil {
		return fmt.Errorf("link users: %w", err)
	}
	return nil
}

func (g *Graph) unlinkSequential(ctx context.Context, a, b primitive.ObjectID) error {
	if _, err := g.users.RemoveConnection(ctx, a, b); err != nil {
		return fmt.Errorf("unlink users: %w", err)
	}
	if _, err := g.users.RemoveConnection(ctx, b, a); err != nil {
		return fmt.Errorf("unlink users: %w", err)
	}
	return nil
}

// compensate runs fn on a context that survives cancellation of the request
func (g *Graph) compensate(ctx context.Context, operation string, fn func(ctx context.Context)) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	g.metrics.Compensations.WithLabelValues(operation).Inc()
	fn(cctx)
}

func (g *Graph) undo(operation string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("[Graph] %s compensation failed, connection sets may be asymmetric: %v", operation, err)
	}
}
