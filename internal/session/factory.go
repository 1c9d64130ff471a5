package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/storage"
)

// ErrMissingDependency is returned when a Factory is assembled without a
// required collaborator.
var ErrMissingDependency = errors.New("session: missing dependency")

// Factory opens per-client Stores over a shared Backend. A nil backend is
// allowed and behaves as unavailable storage.
type Factory struct {
	backend storage.Backend
	logger  *zap.Logger
}

// NewFactory assembles a Factory.
func NewFactory(backend storage.Backend, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is nil", ErrMissingDependency)
	}
	return &Factory{backend: backend, logger: logger}, nil
}

// Open builds and hydrates the Store of the given client.
func (f *Factory) Open(ctx context.Context, clientID string, opts ...Option) *Store {
	local := storage.NewLocal(f.backend, clientID, f.logger.With(zap.String("client_id", clientID)))
	return New(ctx, local, opts...)
}
