// Package cascade wires the dependency graph, field store, fetcher, renderer
// and persistence into a controller the host form talks to. One controller
// drives one form instance.
package cascade

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/onceinteractive/cascade/internal/bootstrap"
	"github.com/onceinteractive/cascade/internal/engine"
	"github.com/onceinteractive/cascade/internal/fetch"
	"github.com/onceinteractive/cascade/internal/fieldgraph"
	"github.com/onceinteractive/cascade/internal/persist"
	"github.com/onceinteractive/cascade/internal/render"
	"github.com/onceinteractive/cascade/pkg/types"
)

const eventBuffer = 64

// Controller serializes every mutation of the cascade onto one event loop:
// user edits, fetch completions and lifecycle signals all funnel through the
// same channel, so responses can interleave with edits without data races.
// Supersession of slow responses is handled by the engine's filter-tuple
// check, not by cancellation.
type Controller struct {
	formID    string
	graph     *fieldgraph.Graph
	surface   render.Surface
	engine    *engine.Engine
	sequencer *bootstrap.Sequencer
	logger    *log.Logger

	bootOpts []bootstrap.Option
	adapter  persist.Adapter
	events   chan event
}

type event interface{ isEvent() }

type changeEvent struct {
	field types.FieldID
	value string
}

type fetchDoneEvent struct {
	pending *engine.Pending
	choices []types.Choice
}

type replayEvent struct {
	snapshot types.Selections
}

type submittedEvent struct{}

func (changeEvent) isEvent()    {}
func (fetchDoneEvent) isEvent() {}
func (replayEvent) isEvent()    {}
func (submittedEvent) isEvent() {}

// Option configures a Controller.
type Option func(*Controller)

// WithGraph replaces the built-in return-form graph.
func WithGraph(g *fieldgraph.Graph) Option {
	return func(c *Controller) {
		c.graph = g
	}
}

// WithFormID pins the form instance id. It namespaces persisted selections,
// so it must be stable across page loads for restore to work.
func WithFormID(id string) Option {
	return func(c *Controller) {
		c.formID = id
	}
}

// WithPersistence sets the durable mirror for committed selections.
func WithPersistence(adapter persist.Adapter) Option {
	return func(c *Controller) {
		c.adapter = adapter
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithBootstrap forwards options to the bootstrap sequencer.
func WithBootstrap(opts ...bootstrap.Option) Option {
	return func(c *Controller) {
		c.bootOpts = append(c.bootOpts, opts...)
	}
}

// New creates a controller over a host surface and a choice fetcher.
func New(surface render.Surface, fetcher fetch.Fetcher, opts ...Option) (*Controller, error) {
	if surface == nil {
		return nil, errors.New("cascade: surface is required")
	}
	if fetcher == nil {
		return nil, errors.New("cascade: fetcher is required")
	}

	c := &Controller{
		formID:  uuid.New().String(),
		surface: surface,
		logger:  log.Default(),
		adapter: persist.Discard{},
		events:  make(chan event, eventBuffer),
	}
	for _, o := range opts {
		o(c)
	}
	if c.graph == nil {
		c.graph = fieldgraph.Default()
	}

	c.engine = engine.New(c.formID, c.graph, fetcher, surface,
		engine.WithPersistence(c.adapter),
		engine.WithLogger(c.logger),
	)
	c.sequencer = bootstrap.New(surface, c.graph.Root(),
		append([]bootstrap.Option{bootstrap.WithLogger(c.logger)}, c.bootOpts...)...)
	return c, nil
}

// FormID returns the form instance this controller drives.
func (c *Controller) FormID() string {
	return c.formID
}

// Selections returns a snapshot of the committed value of every field.
func (c *Controller) Selections() types.Selections {
	return c.engine.Store().Snapshot()
}

// FieldChanged reports a direct user edit. Safe to call from host callbacks;
// the work happens on the controller loop.
func (c *Controller) FieldChanged(id types.FieldID, value string) {
	c.events <- changeEvent{field: id, value: value}
}

// ValidationFailed reports a server-side validation re-render. The submitted
// raw values replay through the same path as a bootstrap restore.
func (c *Controller) ValidationFailed(values types.Selections) {
	c.events <- replayEvent{snapshot: values}
}

// SubmissionSucceeded reports a successful submit; the persisted mirror for
// this form instance is dropped.
func (c *Controller) SubmissionSucceeded() {
	c.events <- submittedEvent{}
}

// Run waits for the host form to become interactive, restores persisted state
// when there is something to restore, then serves the event loop until the
// context ends.
func (c *Controller) Run(ctx context.Context) error {
	ready := c.sequencer.WaitReady(ctx)
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "cascade: bootstrap cancelled")
	}
	c.logger.Debug("cascade attached", "form", c.formID, "ready", ready)

	if persisted := c.engine.Persisted(); c.sequencer.ShouldReplay(persisted) {
		if err := c.engine.Replay(ctx, persisted); err != nil {
			c.logger.Error("restore failed", "form", c.formID, "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "cascade: controller stopped")
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case changeEvent:
		pendings, err := c.engine.OnUserChange(ev.field, ev.value)
		if err != nil {
			c.logger.Error("change rejected", "field", ev.field, "err", err)
		}
		for _, p := range pendings {
			c.dispatch(ctx, p)
		}
	case fetchDoneEvent:
		c.engine.Complete(ev.pending, ev.choices)
	case replayEvent:
		if err := c.engine.Replay(ctx, ev.snapshot); err != nil {
			c.logger.Error("replay failed", "form", c.formID, "err", err)
		}
	case submittedEvent:
		c.engine.SubmissionSucceeded()
	}
}

// dispatch resolves a pending refetch off the loop and posts the result back
// as an event. The engine decides at completion time whether the response is
// still current.
func (c *Controller) dispatch(ctx context.Context, p *engine.Pending) {
	go func() {
		choices := c.engine.Resolve(ctx, p)
		select {
		case c.events <- fetchDoneEvent{pending: p, choices: choices}:
		case <-ctx.Done():
		}
	}()
}
