// Package roster keeps the list of people shown to users in step with the
// store. Store calls run as background tasks; their results are applied to
// the list by a single loop goroutine, which is the only code that touches it.
package roster

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/singleflight"

	"github.com/aoideee/peopleview/internal/data"
	"github.com/aoideee/peopleview/internal/validator"
)

var (
	// ErrStopped is returned when the loop is no longer running.
	ErrStopped = errors.New("roster: controller stopped")

	// ErrEmptySelection is returned by Delete when none of the ids is shown.
	ErrEmptySelection = errors.New("roster: no people selected")
)

// Store is the persistence the controller drives. data.PersonModel
// satisfies it.
type Store interface {
	ListAll(ctx context.Context) ([]*data.Person, error)
	Insert(ctx context.Context, p *data.Person) error
	Delete(ctx context.Context, p *data.Person) error
	RestoreBasicData(ctx context.Context) error
}

var _ Store = data.PersonModel{}

// Controller owns the displayed collection of people.
type Controller struct {
	store  Store
	ids    *data.Sequence
	logger *slog.Logger

	events  chan func()
	stopped chan struct{}
	flight  singleflight.Group

	// people is only read or written on the Run goroutine.
	people []*data.Person
}

// New returns a controller over store. New people draw their in-memory ids
// from ids. Run must be started before any task can complete.
func New(store Store, ids *data.Sequence, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		store:   store,
		ids:     ids,
		logger:  logger.With(slog.String("component", "roster")),
		events:  make(chan func()),
		stopped: make(chan struct{}),
		people:  []*data.Person{},
	}
}

// Run applies task results until ctx is done. Tasks still waiting to apply
// a result afterwards fail with ErrStopped.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)

	c.logger.Info("controller loop started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("controller loop stopped")
			return nil
		case fn := <-c.events:
			fn()
		}
	}
}

// onLoop runs fn on the Run goroutine and returns its value. Once the loop
// has accepted fn it always runs it to completion.
func onLoop[T any](c *Controller, fn func() T) (T, error) {
	reply := make(chan T, 1)
	select {
	case c.events <- func() { reply <- fn() }:
		return <-reply, nil
	case <-c.stopped:
		var zero T
		return zero, ErrStopped
	}
}

// spawn starts op as a task. Store calls inside it keep ctx's values but
// are never cancelled mid-flight.
func (c *Controller) spawn(ctx context.Context, op string, fn func(ctx context.Context, log *slog.Logger) (Notice, error)) *Task[Notice] {
	return Go(context.WithoutCancel(ctx), func(ctx context.Context) (Notice, error) {
		log := c.logger.With(slog.String("operation", op), slog.String("task_id", TaskID(ctx)))
		log.Debug("task started")

		n, err := fn(ctx, log)
		if err != nil {
			log.Error("task failed", slog.String("notice", n.Key), slog.String("error", err.Error()))
			return n, err
		}
		log.Info("task finished", slog.String("notice", n.Key), slog.String("message", n.Message))
		return n, nil
	})
}

// People returns a copy of the displayed collection.
func (c *Controller) People(ctx context.Context) ([]*data.Person, error) {
	type snapshot struct{ people []*data.Person }

	reply := make(chan snapshot, 1)
	select {
	case c.events <- func() {
		out := make([]*data.Person, len(c.people))
		for i, p := range c.people {
			out[i] = p.Clone()
		}
		reply <- snapshot{out}
	}:
	case <-c.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return (<-reply).people, nil
}

// Load replaces the collection with the store's current rows.
func (c *Controller) Load(ctx context.Context) *Task[Notice] {
	return c.spawn(ctx, "load", func(ctx context.Context, _ *slog.Logger) (Notice, error) {
		people, err := c.store.ListAll(ctx)
		if err != nil {
			return failure(KeyErrorLoad, "The people could not be loaded: %v", err), err
		}
		return onLoop(c, func() Notice {
			c.people = people
			return info(KeyLoadSuccess, "Loaded %d people", len(people))
		})
	})
}

// Add builds a person from the given fields and inserts it. Invalid input
// completes immediately with a *ValidationError and never reaches the store.
// After a successful insert the collection is reloaded so it shows the id
// the store assigned. If that reload fails the collection is left as it
// was: the person's in-memory id is not a store id and must never be
// offered for deletion.
func (c *Controller) Add(ctx context.Context, firstName, lastName string, birthDate *civil.Date) *Task[Notice] {
	p, err := data.NewPerson(c.ids, firstName, lastName, birthDate)

	v := validator.New()
	if err != nil {
		c.logger.Warn("person field rejected", slog.Any("person", p), slog.String("error", err.Error()))
		v.Check(!errors.Is(err, data.ErrFutureBirthDate), "birth_date", "must not be in the future")
		v.Check(!errors.Is(err, data.ErrInvalidBirthDate), "birth_date", "must be a valid calendar date")
	}
	data.ValidatePerson(v, p)
	if !v.Valid() {
		verr := &ValidationError{Fields: v.Errors}
		c.logger.Warn("person not added", slog.Any("person", p), slog.String("error", verr.Error()))
		return Completed(failure(KeyErrorAdd, "The person could not be added: %v", verr), error(verr))
	}

	return c.spawn(ctx, "add", func(ctx context.Context, log *slog.Logger) (Notice, error) {
		if err := c.store.Insert(ctx, p); err != nil {
			return failure(KeyErrorAdd, "The person could not be added"), err
		}

		people, err := c.store.ListAll(ctx)
		if err != nil {
			log.Warn("reload after insert failed, list left unchanged", slog.String("error", err.Error()))
			return info(KeySuccessAdd, "Person added successfully, but the list could not be reloaded. Refresh to see it"), nil
		}
		return onLoop(c, func() Notice {
			c.people = people
			return info(KeySuccessAdd, "Person added successfully")
		})
	})
}

// Delete removes the displayed people with the given ids, one store call
// each. Only people the store actually deleted leave the collection. The
// task fails when nothing was deleted.
func (c *Controller) Delete(ctx context.Context, ids []int64) *Task[Notice] {
	return c.spawn(ctx, "delete", func(ctx context.Context, log *slog.Logger) (Notice, error) {
		wanted := make(map[int64]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}

		selected, err := onLoop(c, func() []*data.Person {
			var out []*data.Person
			for _, p := range c.people {
				if wanted[p.ID()] {
					out = append(out, p.Clone())
				}
			}
			return out
		})
		if err != nil {
			return failure(KeyErrorDelete, "No rows could be deleted"), err
		}
		if len(selected) == 0 {
			return failure(KeyErrorDelete, "No rows could be deleted"), ErrEmptySelection
		}

		deleted := make(map[int64]bool, len(selected))
		var errs []error
		for _, p := range selected {
			if err := c.store.Delete(ctx, p); err != nil {
				errs = append(errs, err)
				continue
			}
			deleted[p.ID()] = true
		}
		log.Info("delete finished", slog.Int("deleted", len(deleted)), slog.Int("selected", len(selected)))

		if len(deleted) == 0 {
			return failure(KeyErrorDelete, "No rows could be deleted"), errors.Join(errs...)
		}
		for _, err := range errs {
			log.Warn("person not deleted", slog.String("error", err.Error()))
		}

		return onLoop(c, func() Notice {
			kept := c.people[:0:0]
			for _, p := range c.people {
				if !deleted[p.ID()] {
					kept = append(kept, p)
				}
			}
			c.people = kept
			return info(KeyDeleteSuccess, "Deleted %d people, %d remaining", len(deleted), len(kept))
		})
	})
}

// Restore replaces the table with the seed data and reloads the collection.
// Restores requested while one is running share its outcome.
func (c *Controller) Restore(ctx context.Context) *Task[Notice] {
	return c.spawn(ctx, "restore", func(ctx context.Context, log *slog.Logger) (Notice, error) {
		v, err, shared := c.flight.Do("restore", func() (any, error) {
			return c.restore(ctx)
		})
		if shared {
			log.Debug("joined running restore")
		}
		return v.(Notice), err
	})
}

func (c *Controller) restore(ctx context.Context) (Notice, error) {
	previous, err := onLoop(c, func() int { return len(c.people) })
	if err != nil {
		return failure(KeyErrorRestore, "The basic data could not be restored"), err
	}

	if err := c.store.RestoreBasicData(ctx); err != nil {
		return failure(KeyErrorRestore, "The basic data could not be restored: %v", err), err
	}

	people, err := c.store.ListAll(ctx)
	if err != nil {
		return failure(KeyErrorLoad, "Basic data restored, but the people could not be reloaded: %v", err), err
	}
	return onLoop(c, func() Notice {
		c.people = people
		return info(KeyRestoreSuccess, "Basic data restored. Rows before: %d. Rows now: %d.", previous, len(people))
	})
}
