package health

import "context"

// StoragePinger checks persistence backend availability.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// ResourceCounter reports the resources held in memory.
type ResourceCounter interface {
	Names() []string
}
