// Package state persists discharge decision state and the append-only audit
// trail behind a small key-value abstraction so the engine never assumes file
// paths or table layouts.
package state

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// KV is the durable-write mechanism shared by the state store and the
// escalation router. Put overwrites (last-write-wins); Append grows an ordered
// log; Get decodes the current value of a key into out.
type KV interface {
	Put(ctx context.Context, namespace, key string, value any) error
	Append(ctx context.Context, namespace, key string, entry any) error
	Get(ctx context.Context, namespace, key string, out any) error
	GetLog(ctx context.Context, namespace, key string, out any) error
}

// PersistenceError marks a durable-write failure. Unlike check and narrative
// failures, these are fatal to a run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err is (or wraps) a persistence failure.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
