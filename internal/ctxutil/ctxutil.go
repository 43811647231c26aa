package ctxutil

import (
	"context"
	"sync/atomic"
	"time"
)

// private keys to avoid collisions
type key int

const (
	keyRequestID key = iota
	keyOpName
)

// WithRequestID / RequestID carry the transport's request id into logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}

// WithOp / Op name the current operation for logs and error reports.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOpName).(string)
	return v, ok && v != ""
}

const DefaultDBTimeout = 5 * time.Second

var dbTimeout atomic.Int64

func init() { dbTimeout.Store(int64(DefaultDBTimeout)) }

// SetDBTimeout overrides the per-query timeout; d <= 0 restores the default.
func SetDBTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultDBTimeout
	}
	dbTimeout.Store(int64(d))
}

func DBTimeout() time.Duration { return time.Duration(dbTimeout.Load()) }

// WithTimeout is context.WithTimeout that treats d <= 0 as "no timeout".
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout bounds one store call, keeping a shorter parent deadline.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	d := DBTimeout()
	if dl, ok := parent.Deadline(); ok {
		if remain := time.Until(dl); remain < d {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, d)
}
