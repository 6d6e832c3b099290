package store

// Builder can build stores.
type Builder struct {
	path  string
	clock Clock
}

// MakeBuilder creates a new builder with the default path and the system
// clock.
func MakeBuilder() Builder {
	return Builder{
		path:  DefaultPath,
		clock: SystemClock{},
	}
}

// WithPath sets the file the store writes to. An empty path keeps the
// default.
func (b Builder) WithPath(path string) Builder {
	if path != "" {
		b.path = path
	}

	return b
}

// WithClock sets the clock that stamps records.
func (b Builder) WithClock(clock Clock) Builder {
	b.clock = clock
	return b
}

// Build creates a new store.
func (b Builder) Build() *Store {
	return &Store{
		path:  b.path,
		clock: b.clock,
	}
}
