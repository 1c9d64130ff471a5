package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/model"
	"github.com/phonegate/portal/internal/observability"
	"github.com/phonegate/portal/internal/validation"
)

// NetworkErrorMessage is the single banner shown for any fetch failure.
const NetworkErrorMessage = "Connection error. Please try again."

// State is a step of one login attempt.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateFetching   State = "fetching"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// ErrorKind distinguishes field errors from the network banner.
type ErrorKind string

const (
	ErrorNone    ErrorKind = ""
	ErrorField   ErrorKind = "field"
	ErrorNetwork ErrorKind = "network"
)

// Outcome is the result of one Submit.
type Outcome struct {
	State        State
	Kind         ErrorKind
	FieldErrors  map[string]string
	NetworkError string
	User         model.User
}

// Session is where a successful login lands.
type Session interface {
	Login(ctx context.Context, user model.User)
}

// Flow drives one login form. It is safe to read Loading and State while a
// Submit is running.
type Flow struct {
	schema *validation.Schema
	source UserSource
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	loading   bool
	observers []func(State)
}

// OnTransition registers fn to receive every state entered.
func (f *Flow) OnTransition(fn func(State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Loading reports whether a submit is validating or fetching.
func (f *Flow) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Submit runs one login attempt. Field and network failures return the flow
// to idle; success logs sess in with the fetched user.
func (f *Flow) Submit(ctx context.Context, values validation.LoginValues, sess Session) (out Outcome) {
	f.setLoading(true)
	defer f.setLoading(false)
	defer func() {
		if out.State != StateSuccess {
			f.enter(StateIdle)
		}
	}()

	log := f.logger.With(zap.String("phone", observability.MaskPhone(values.Phone)))

	f.enter(StateValidating)
	if errs := f.schema.Validate(values); !errs.OK() {
		log.Debug("login rejected by schema", zap.Int("issues", len(errs)))
		f.enter(StateError)
		return Outcome{State: StateError, Kind: ErrorField, FieldErrors: errs.Fields()}
	}

	f.enter(StateFetching)
	rec, err := f.source.FetchOne(ctx)
	if err != nil {
		log.Warn("user fetch failed", zap.Error(err))
		f.enter(StateError)
		return Outcome{State: StateError, Kind: ErrorNetwork, NetworkError: NetworkErrorMessage}
	}

	user := rec.ToUser()
	if user.IsZero() {
		log.Warn("user fetch returned an empty record")
		f.enter(StateError)
		return Outcome{State: StateError, Kind: ErrorNetwork, NetworkError: NetworkErrorMessage}
	}

	sess.Login(ctx, user)
	f.enter(StateSuccess)
	log.Info("login succeeded", zap.String("user_id", user.ID))
	return Outcome{State: StateSuccess, User: user}
}

func (f *Flow) setLoading(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = v
}

func (f *Flow) enter(s State) {
	f.mu.Lock()
	f.state = s
	observers := append([]func(State){}, f.observers...)
	f.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}
