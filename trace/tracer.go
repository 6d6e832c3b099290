// Package trace provides hooks that a cache model calls on every access.
//
// The cache model computes the binary fields itself. Tracers only record
// what they are given.
package trace

import (
	"errors"

	"github.com/sarchlab/accesslog/datarecording"
	"github.com/sarchlab/accesslog/store"
)

// An Access is one cache access as binary strings.
type Access struct {
	Address string
	Tag     string
	Index   string
	Offset  string
	Data    string
}

// A Tracer records cache accesses.
type Tracer interface {
	TraceAccess(a Access) error
}

// storeTracer appends accesses to a text store.
type storeTracer struct {
	store   *store.Store
	seqName string
}

// NewStoreTracer creates a tracer that records every access into s, labeled
// with seqName. An empty seqName is recorded as "-".
func NewStoreTracer(s *store.Store, seqName string) Tracer {
	return &storeTracer{
		store:   s,
		seqName: seqName,
	}
}

// TraceAccess appends one line to the store.
func (t *storeTracer) TraceAccess(a Access) error {
	return t.store.RecordAccess(
		a.Address, a.Tag, a.Index, a.Offset, a.Data, t.seqName)
}

// A dbTracer is a hook that mirrors accesses into a data recorder.
type dbTracer struct {
	clock        store.Clock
	dataRecorder datarecording.DataRecorder
	seqName      string
}

// NewDBTracer creates a tracer that inserts accesses into the access table of
// the data recorder. The table is created here.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	seqName string,
	clock store.Clock,
) (Tracer, error) {
	err := datarecording.CreateAccessTable(dataRecorder)
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = store.SystemClock{}
	}

	t := &dbTracer{
		clock:        clock,
		dataRecorder: dataRecorder,
		seqName:      seqName,
	}

	return t, nil
}

// TraceAccess buffers one row in the data recorder.
func (t *dbTracer) TraceAccess(a Access) error {
	entry := datarecording.MakeAccessEntry(store.Record{
		Time:    t.clock.Now(),
		SeqName: t.seqName,
		Address: a.Address,
		Tag:     a.Tag,
		Index:   a.Index,
		Offset:  a.Offset,
		Data:    a.Data,
	})

	return t.dataRecorder.InsertData(datarecording.AccessTable, entry)
}

// multiTracer forwards accesses to several tracers.
type multiTracer struct {
	tracers []Tracer
}

// NewMultiTracer creates a tracer that forwards each access to all the given
// tracers, in order. Every tracer sees the access even if an earlier one
// fails.
func NewMultiTracer(tracers ...Tracer) Tracer {
	return &multiTracer{tracers: tracers}
}

// TraceAccess forwards the access and joins the errors.
func (t *multiTracer) TraceAccess(a Access) error {
	var errs []error

	for _, tracer := range t.tracers {
		err := tracer.TraceAccess(a)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
