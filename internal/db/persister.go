package db

import "context"

// Persister stores whole-database snapshots outside the process.
type Persister interface {
	// Load returns the stored snapshot, or an empty one when nothing is stored yet.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	Close() error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
