package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/metrics"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultSocketTimeout  = 45 * time.Second
	defaultMaxPoolSize    = 10
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
	MaxPoolSize    uint64
}

// State is the connection state of a Pool.
type State int32

const (
	StateCold State = iota
	StateConnecting
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	}
	return "unknown"
}

// ReadyHook runs after a successful connection until it succeeds once.
type ReadyHook func(ctx context.Context, db *mongo.Database) error

// Pool owns the Mongo client and its connection state. The client is created
// lazily (no I/O) so repositories can be built before the server is reachable;
// Ensure verifies connectivity on demand.
type Pool struct {
	cfg    Config
	client *mongo.Client
	db     *mongo.Database
	logger zerolog.Logger

	ping func(ctx context.Context) error

	mu        sync.Mutex
	state     State
	inflight  chan struct{}
	lastErr   error
	hooks     []ReadyHook
	hooksDone bool
}

// NewPool builds the client from cfg without contacting the server.
func NewPool(cfg Config, logger zerolog.Logger) (*Pool, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = defaultSocketTimeout
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetSocketTimeout(cfg.SocketTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(context.Background(), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}

	p := &Pool{
		cfg:    cfg,
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}
	p.ping = func(ctx context.Context) error {
		return p.client.Ping(ctx, readpref.Primary())
	}
	metrics.DatabaseState.Set(float64(StateCold))
	return p, nil
}

// Database returns the configured database handle. Operations on it fail
// until the server is reachable; callers gate on Ensure.
func (p *Pool) Database() *mongo.Database {
	return p.db
}

// OnReady registers a hook for the next transition to ready.
func (p *Pool) OnReady(hook ReadyHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, hook)
	p.hooksDone = false
}

func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ensure returns nil when the database is reachable. Concurrent callers share
// a single in-flight attempt; a failed attempt leaves the pool degraded and
// the next call tries again.
func (p *Pool) Ensure(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateReady {
		p.mu.Unlock()
		return nil
	}
	if wait := p.inflight; wait != nil {
		p.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrDatabaseUnavailable, ctx.Err())
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state == StateReady {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrDatabaseUnavailable, p.lastErr)
	}

	done := make(chan struct{})
	p.inflight = done
	p.setState(StateConnecting)
	p.mu.Unlock()

	// The attempt outlives a cancelled request so waiters get a real answer.
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.ConnectTimeout)
	defer cancel()

	err := p.ping(attemptCtx)
	if err == nil {
		metrics.DatabaseConnectAttemptsTotal.WithLabelValues("ok").Inc()
		p.runHooks(attemptCtx)
	} else {
		metrics.DatabaseConnectAttemptsTotal.WithLabelValues("error").Inc()
	}

	p.mu.Lock()
	p.inflight = nil
	p.lastErr = err
	if err != nil {
		p.setState(StateDegraded)
	} else {
		p.setState(StateReady)
	}
	p.mu.Unlock()
	close(done)

	if err != nil {
		p.logger.Error().Err(err).Msg("database connection failed")
		return fmt.Errorf("%w: %v", domain.ErrDatabaseUnavailable, err)
	}
	p.logger.Info().Str("database", p.cfg.Database).Msg("database connected")
	return nil
}

// runHooks executes the ready hooks once. A failing hook is logged and the
// whole set is retried on the next transition to ready.
func (p *Pool) runHooks(ctx context.Context) {
	p.mu.Lock()
	if p.hooksDone {
		p.mu.Unlock()
		return
	}
	hooks := append([]ReadyHook(nil), p.hooks...)
	p.mu.Unlock()

	ok := true
	for _, hook := range hooks {
		if err := hook(ctx, p.db); err != nil {
			p.logger.Error().Err(err).Msg("database ready hook failed")
			ok = false
		}
	}

	p.mu.Lock()
	p.hooksDone = ok
	p.mu.Unlock()
}

func (p *Pool) setState(s State) {
	p.state = s
	metrics.DatabaseState.Set(float64(s))
}

// Disconnect closes the underlying client.
func (p *Pool) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return p.client.Disconnect(ctx)
}
