package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/randomuser"
	"github.com/phonegate/portal/internal/validation"
)

// ErrMissingDependency is returned when a Service is assembled without a
// required collaborator.
var ErrMissingDependency = errors.New("auth: missing dependency")

// UserSource supplies the identity of a successful login.
type UserSource interface {
	FetchOne(ctx context.Context) (randomuser.Record, error)
}

// Service orchestrates login attempts
type Service struct {
	source UserSource
	schema *validation.Schema
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(source UserSource, logger *zap.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: user source is nil", ErrMissingDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger is nil", ErrMissingDependency)
	}
	return &Service{
		source: source,
		schema: validation.LoginSchema(),
		logger: logger,
	}, nil
}

// NewFlow starts an idle login flow.
func (s *Service) NewFlow() *Flow {
	return &Flow{
		schema: s.schema,
		source: s.source,
		logger: s.logger,
		state:  StateIdle,
	}
}

// Login runs a single attempt on a fresh flow.
func (s *Service) Login(ctx context.Context, phone string, sess Session) Outcome {
	return s.NewFlow().Submit(ctx, validation.LoginValues{Phone: phone}, sess)
}
