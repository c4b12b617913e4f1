package repository

import "context"

// Transactor runs fn inside one storage transaction. Repositories called with
// the ctx passed to fn take part in it. A nested call joins the outer
// transaction. A non-nil error from fn rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx runs fn directly, for deployments without transaction support.
type NoTx struct{}

// WithinTx calls fn(ctx).
func (NoTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
