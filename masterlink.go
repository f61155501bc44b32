// Package masterlink links newly ingested source records to master
// identity records.
//
// A Client wraps the linker with the plumbing a run needs: the source
// registry, a store to read master and source snapshots from, a file lock
// that keeps two runs from overlapping, and hooks fired for every new
// identity found.
//
//	client, err := masterlink.New(
//		masterlink.WithRegistryFile("registry.yaml"),
//		masterlink.WithStore("postgres", dsn),
//		masterlink.WithLockFile("/var/run/masterlink.lock"),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	result, err := client.Match(ctx, batch)
package masterlink

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/flock"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/store"
	"github.com/agentstation/masterlink/pkg/store/sqlstore"
)

// Client runs linkage against a configured registry and store
type Client interface {
	// Match runs linkage for a batch and returns the new identities
	Match(ctx context.Context, batch *linkage.Batch) (*linkage.Result, error)

	// Registry returns the source registry in use
	Registry() *registry.Registry

	// OnNewIdentity registers a callback for every new identity record
	OnNewIdentity(NewIdentityHook)

	// OnRunComplete registers a callback for finished runs
	OnRunComplete(RunCompleteHook)

	// Close releases the store
	Close() error
}

// client is the internal implementation of the Client interface
type client struct {
	mu     sync.Mutex
	config *config
	linker *linkage.Linker
	store  *sqlstore.Store
	hooks  *hooks
}

// New creates a new Client with the given options
func New(opts ...Option) (Client, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	reg := cfg.registry
	if reg == nil && cfg.registryPath != "" {
		var err error
		if reg, err = registry.Load(cfg.registryPath); err != nil {
			return nil, err
		}
	}
	if reg == nil {
		return nil, errors.NewConfigError("registry", "a registry or registry file is required", nil)
	}
	if cfg.reader == nil && cfg.dsn == "" {
		return nil, errors.NewConfigError("store", "a reader or store DSN is required", nil)
	}

	linker, err := linkage.New(reg, cfg.linkerOptions...)
	if err != nil {
		return nil, err
	}

	return &client{
		config: cfg,
		linker: linker,
		hooks:  newHooks(),
	}, nil
}

// Match validates the batch, takes the run lock, opens a read snapshot
// and runs the linker. Hooks fire only after a successful run.
func (c *client) Match(ctx context.Context, batch *linkage.Batch) (*linkage.Result, error) {
	if err := batch.Validate(c.linker.Registry()); err != nil {
		return nil, err
	}

	unlock, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	reader, release, err := c.reader(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := c.linker.Run(ctx, reader, batch)
	if err != nil {
		logging.FromContext(logging.WithError(ctx, err)).Debug().Msg("linkage run failed")
		return nil, err
	}

	c.hooks.trigger(result)
	return result, nil
}

// acquire takes the cross-process run lock when one is configured.
func (c *client) acquire(ctx context.Context) (func(), error) {
	if c.config.lockFile == "" {
		return func() {}, nil
	}

	lock := flock.New(c.config.lockFile)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, errors.WrapIO("lock", c.config.lockFile, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock %s is held", errors.ErrLocked, c.config.lockFile)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			logging.FromContext(ctx).Warn().
				Err(err).
				Str("lock", c.config.lockFile).
				Msg("failed to release run lock")
		}
	}, nil
}

// reader returns the reader for one run and a function releasing it.
func (c *client) reader(ctx context.Context) (store.Reader, func(), error) {
	if c.config.reader != nil {
		return c.config.reader, func() {}, nil
	}

	c.mu.Lock()
	if c.store == nil {
		s, err := sqlstore.Open(ctx, c.config.driver, c.config.dsn)
		if err != nil {
			c.mu.Unlock()
			return nil, nil, err
		}
		c.store = s
	}
	s := c.store
	c.mu.Unlock()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snap, func() { _ = snap.Close() }, nil
}

// Registry returns the source registry in use
func (c *client) Registry() *registry.Registry {
	return c.linker.Registry()
}

// OnNewIdentity registers a callback for every new identity record
func (c *client) OnNewIdentity(fn NewIdentityHook) {
	c.hooks.OnNewIdentity(fn)
}

// OnRunComplete registers a callback for finished runs
func (c *client) OnRunComplete(fn RunCompleteHook) {
	c.hooks.OnRunComplete(fn)
}

// Close releases the store
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
