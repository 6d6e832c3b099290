package trace

// AccessFilter decides if an access is interesting. If the function returns
// true, the access is traced.
type AccessFilter func(a Access) bool

type filteredTracer struct {
	tracer Tracer
	filter AccessFilter
}

// NewFilteredTracer creates a tracer that forwards only the accesses accepted
// by filter.
func NewFilteredTracer(tracer Tracer, filter AccessFilter) Tracer {
	return &filteredTracer{
		tracer: tracer,
		filter: filter,
	}
}

func (t *filteredTracer) TraceAccess(a Access) error {
	if !t.filter(a) {
		return nil
	}

	return t.tracer.TraceAccess(a)
}

// CountingTracer counts the accesses that it sees.
type CountingTracer struct {
	count uint64
}

// NewCountingTracer creates a new CountingTracer.
func NewCountingTracer() *CountingTracer {
	return &CountingTracer{}
}

// TraceAccess increases the count.
func (t *CountingTracer) TraceAccess(_ Access) error {
	t.count++
	return nil
}

// Count returns the number of accesses seen so far.
func (t *CountingTracer) Count() uint64 {
	return t.count
}
