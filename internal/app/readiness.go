package app

import (
	"context"
	"errors"
)

// Pinger is anything that can report its own reachability.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db, store and text-generation checks.
// A nil dependency yields a check that always fails.
func BuildReadinessChecks(pool, store, ai Pinger) (
	dbCheck func(ctx context.Context) error,
	storeCheck func(ctx context.Context) error,
	aiCheck func(ctx context.Context) error,
) {
	return pingCheck("db", pool), pingCheck("store", store), pingCheck("ai", ai)
}

func pingCheck(name string, p Pinger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if p == nil {
			return errors.New(name + " not configured")
		}
		return p.Ping(ctx)
	}
}
