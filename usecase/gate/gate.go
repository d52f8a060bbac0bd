// Package gate is the single entry into the core. It resolves the caller's
// identity from a token before dispatching named commands and queries, and
// passes that identity explicitly to every handler.
package gate

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
)

// IdentityProvider verifies opaque tokens.
type IdentityProvider interface {
	CurrentUser(ctx context.Context, token string) (domain.Identity, error)
}

type CommandHandler func(ctx context.Context, owner domain.Identity, payload interface{}) (interface{}, error)
type QueryHandler func(ctx context.Context, owner domain.Identity, params interface{}) (interface{}, error)

type Gate struct {
	identity    IdentityProvider
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	mu          sync.RWMutex
	logger      *zap.Logger
}

func New(identity IdentityProvider, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		identity:    identity,
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
		logger:      logger,
	}
}

func (g *Gate) RegisterCommand(name string, handler CommandHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cmdHandlers[name] = handler
}

func (g *Gate) RegisterQuery(name string, handler QueryHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.qryHandlers[name] = handler
}

// Authenticate resolves token to an identity. Any failure other than an
// unavailable provider is reported as unauthorized.
func (g *Gate) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if g.identity == nil || token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	identity, err := g.identity.CurrentUser(ctx, token)
	if err != nil {
		if domain.IsRetryable(err) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if !identity.Valid() {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return identity, nil
}

// ExecuteCommand authenticates token and runs the named command.
func (g *Gate) ExecuteCommand(ctx context.Context, token, name string, payload interface{}) (interface{}, error) {
	owner, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return g.CommandAs(ctx, owner, name, payload)
}

// ExecuteQuery authenticates token and runs the named query.
func (g *Gate) ExecuteQuery(ctx context.Context, token, name string, params interface{}) (interface{}, error) {
	owner, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return g.QueryAs(ctx, owner, name, params)
}

// CommandAs runs a command for an identity that was already authenticated,
// e.g. by the HTTP middleware.
func (g *Gate) CommandAs(ctx context.Context, owner domain.Identity, name string, payload interface{}) (interface{}, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	g.mu.RLock()
	handler, ok := g.cmdHandlers[name]
	g.mu.RUnlock()
	if !ok {
		return nil, domain.Invalid("command %s not registered", name)
	}
	result, err := handler(ctx, owner, payload)
	if err != nil {
		g.logger.Debug("command failed", zap.String("command", name), zap.String("user_id", owner.UserID), zap.Error(err))
	}
	return result, err
}

func (g *Gate) QueryAs(ctx context.Context, owner domain.Identity, name string, params interface{}) (interface{}, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	g.mu.RLock()
	handler, ok := g.qryHandlers[name]
	g.mu.RUnlock()
	if !ok {
		return nil, domain.Invalid("query %s not registered", name)
	}
	return handler(ctx, owner, params)
}

// Commands lists registered command names, sorted.
func (g *Gate) Commands() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.cmdHandlers))
	for name := range g.cmdHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Queries lists registered query names, sorted.
func (g *Gate) Queries() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.qryHandlers))
	for name := range g.qryHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
