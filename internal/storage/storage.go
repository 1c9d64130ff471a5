// Package storage provides the per-client key-value persistence used for
// session state. A Backend stores raw bytes; Local scopes a Backend to one
// client and handles JSON encoding.
package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// UserKey is the key under which the signed-in user is persisted.
const UserKey = "auth:user"

// Backend is a raw key-value store. Get reports found=false for missing keys.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Local is the JSON view of one client's namespace inside a Backend.
// Every failure is logged and swallowed; a Local without a backend behaves
// as unavailable storage and never reports a stored value.
type Local struct {
	backend   Backend
	namespace string
	logger    *zap.Logger
}

// NewLocal scopes backend to the given client namespace.
func NewLocal(backend Backend, namespace string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{backend: backend, namespace: namespace, logger: logger}
}

// Available reports whether a backend is attached.
func (l *Local) Available() bool {
	return l != nil && l.backend != nil
}

// Get decodes the stored value for key into v and reports whether it was found.
func (l *Local) Get(ctx context.Context, key string, v any) bool {
	if !l.Available() {
		return false
	}
	raw, found, err := l.backend.Get(ctx, l.fullKey(key))
	if err != nil {
		l.logger.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		l.logger.Warn("storage value undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set encodes v as JSON and stores it under key.
func (l *Local) Set(ctx context.Context, key string, v any) {
	if !l.Available() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		l.logger.Warn("storage value unencodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := l.backend.Set(ctx, l.fullKey(key), raw); err != nil {
		l.logger.Warn("storage write failed", zap.String("key", key), zap.Error(err))
	}
}

// Remove deletes key.
func (l *Local) Remove(ctx context.Context, key string) {
	if !l.Available() {
		return
	}
	if err := l.backend.Delete(ctx, l.fullKey(key)); err != nil {
		l.logger.Warn("storage delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (l *Local) fullKey(key string) string {
	if l.namespace == "" {
		return key
	}
	return "client:" + l.namespace + ":" + key
}
