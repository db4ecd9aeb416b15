package gojpm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/albertocavalcante/go-jpm/library"
	"github.com/albertocavalcante/go-jpm/revisions"
)

// Strategy picks one revision out of the visible candidates.
type Strategy int

const (
	// StrategyHighest picks the highest version.
	StrategyHighest Strategy = iota
	// StrategyLowest picks the lowest version.
	StrategyLowest
)

func (s Strategy) String() string {
	switch s {
	case StrategyHighest:
		return "highest"
	case StrategyLowest:
		return "lowest"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses "highest" or "lowest", ignoring case.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "highest", "":
		return StrategyHighest, nil
	case "lowest":
		return StrategyLowest, nil
	}
	return 0, fmt.Errorf("unknown strategy %q", s)
}

// defaultConcurrency bounds the coordinates ResolveAll resolves at once.
const defaultConcurrency = 8

// Option configures a Resolver.
type Option func(*resolverConfig) error

type resolverConfig struct {
	strategy           Strategy
	closures           library.ClosureProvider
	scans              library.ScanQueue
	sets               revisions.Store
	allowWithdrawnPins bool
	concurrency        int

	// logger is nil unless WithLogger is given; see log.
	logger *slog.Logger
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, the resolver is silent.
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

// WithStrategy sets how one revision is picked among candidates.
// The default is StrategyHighest.
func WithStrategy(s Strategy) Option {
	return func(c *resolverConfig) error {
		c.strategy = s
		return nil
	}
}

// WithClosureProvider enables ResolveClosure.
func WithClosureProvider(p library.ClosureProvider) Option {
	return func(c *resolverConfig) error {
		if p == nil {
			return errors.New("closure provider must not be nil")
		}
		c.closures = p
		return nil
	}
}

// WithScanQueue enables Rescan.
func WithScanQueue(q library.ScanQueue) Option {
	return func(c *resolverConfig) error {
		if q == nil {
			return errors.New("scan queue must not be nil")
		}
		c.scans = q
		return nil
	}
}

// WithRevisionSetStore enables Persist.
func WithRevisionSetStore(s revisions.Store) Option {
	return func(c *resolverConfig) error {
		if s == nil {
			return errors.New("revision set store must not be nil")
		}
		c.sets = s
		return nil
	}
}

// WithAllowWithdrawnPins lets SHA coordinates resolve WITHDRAWN revisions
// even when their modifier does not make WITHDRAWN visible.
func WithAllowWithdrawnPins(allow bool) Option {
	return func(c *resolverConfig) error {
		c.allowWithdrawnPins = allow
		return nil
	}
}

// WithConcurrency bounds how many coordinates ResolveAll and Install query
// the store for at once. The default is 8.
func WithConcurrency(n int) Option {
	return func(c *resolverConfig) error {
		c.concurrency = n
		return nil
	}
}

func (c *resolverConfig) validate() error {
	if c.concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", c.concurrency)
	}
	if c.strategy != StrategyHighest && c.strategy != StrategyLowest {
		return fmt.Errorf("invalid strategy %v", c.strategy)
	}
	return nil
}

// log returns the configured logger, or one that discards everything.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{concurrency: defaultConcurrency}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
