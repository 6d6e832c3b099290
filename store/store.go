// Package store records cache accesses as lines in a plain text file.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultPath is the store file used when no path is given. It is resolved
// against the working directory at the time of each call.
const DefaultPath = "binary_values.txt"

// Header is the first line written into a newly created store.
const Header = "# Binary values of cache accesses\n"

// A Store appends access records to a file and reads the file back. Every
// operation opens and closes the file, so a Store holds no open handle.
//
// A Store does not serialize writers. Concurrent appends rely on the append
// mode of the file only.
type Store struct {
	path  string
	clock Clock
}

// New creates a Store bound to the given path, using the system clock.
func New(path string) *Store {
	return MakeBuilder().WithPath(path).Build()
}

// Path returns the file that the store writes to.
func (s *Store) Path() string {
	return s.path
}

// EnsureStore creates the store file with a header line if it does not exist.
// It does nothing when the file is already there.
func (s *Store) EnsureStore() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat store %s: %w", s.path, err)
	}

	return s.create()
}

// create writes a new store file with its header. A file that already exists
// is left untouched.
func (s *Store) create() error {
	// O_EXCL keeps a file created by another writer since the stat intact.
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("create store %s: %w", s.path, err)
	}

	_, err = f.WriteString(Header)
	if err != nil {
		f.Close()
		return fmt.Errorf("write header to %s: %w", s.path, err)
	}

	return f.Close()
}

// RecordAccess appends one access line. An empty seqName is recorded as "-".
// The values are stored as given and are not checked to be binary strings.
func (s *Store) RecordAccess(
	address, tag, index, offset, data string,
	seqName string,
) error {
	return s.Append(Record{
		SeqName: seqName,
		Address: address,
		Tag:     tag,
		Index:   index,
		Offset:  offset,
		Data:    data,
	})
}

// Append appends a record built by the caller. A record without a time is
// stamped with the store clock.
func (s *Store) Append(r Record) error {
	err := s.EnsureStore()
	if err != nil {
		return err
	}

	if r.Time.IsZero() {
		r.Time = s.clock.Now()
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open store %s: %w", s.path, err)
	}

	// One write per line; a line is never split across writes.
	_, err = f.WriteString(FormatLine(r))
	if err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}

	return f.Close()
}

// ReadStore returns the whole content of the store file, header included.
func (s *Store) ReadStore() (string, error) {
	err := s.EnsureStore()
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read store %s: %w", s.path, err)
	}

	return string(content), nil
}

// Records reads the store and parses every access line.
func (s *Store) Records() ([]Record, error) {
	content, err := s.ReadStore()
	if err != nil {
		return nil, err
	}

	return ParseRecords(content)
}
