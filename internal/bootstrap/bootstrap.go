// Package bootstrap bridges the gap between controller start and the host
// form becoming interactive. The host substrate renders asynchronously and
// offers no reliable readiness event, so readiness is polled: the root field
// is considered ready once it shows more than its placeholder option.
package bootstrap

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/onceinteractive/cascade/internal/render"
	"github.com/onceinteractive/cascade/pkg/types"
)

const (
	defaultInterval    = 250 * time.Millisecond
	defaultMaxAttempts = 20
)

var errNotReady = errors.New("root field not yet populated")

// Sequencer waits for the host form to become interactive, then decides
// whether a replay is worth running.
type Sequencer struct {
	surface     render.Surface
	root        types.FieldID
	interval    time.Duration
	maxAttempts uint64
	logger      *log.Logger
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Sequencer) {
		s.interval = d
	}
}

// WithMaxAttempts bounds the poll. After the budget is spent the sequencer
// proceeds unconditionally.
func WithMaxAttempts(n uint64) Option {
	return func(s *Sequencer) {
		s.maxAttempts = n
	}
}

// WithLogger sets the sequencer logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Sequencer) {
		s.logger = logger
	}
}

// New creates a sequencer watching the given root field.
func New(surface render.Surface, root types.FieldID, opts ...Option) *Sequencer {
	s := &Sequencer{
		surface:     surface,
		root:        root,
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
		logger:      log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WaitReady polls until the root field has real choices, the attempt budget
// is spent, or the context ends. It returns whether readiness was observed;
// the caller proceeds either way.
func (s *Sequencer) WaitReady(ctx context.Context) bool {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.interval), s.maxAttempts),
		ctx,
	)

	err := backoff.Retry(func() error {
		if s.surface.OptionCount(s.root) > 1 {
			return nil
		}
		return errNotReady
	}, policy)

	if err != nil {
		s.logger.Debug("proceeding without root readiness", "root", s.root, "err", err)
		return false
	}
	return true
}

// ShouldReplay reports whether a restore is worth running: the root field
// must hold a value to filter by and at least one persisted selection must be
// non-empty.
func (s *Sequencer) ShouldReplay(persisted types.Selections) bool {
	return s.surface.Value(s.root) != "" && persisted.HasValues()
}
