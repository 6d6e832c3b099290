// Package follow reports records as they are appended to a store.
package follow

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sarchlab/accesslog/store"
)

// A Handler receives every record appended to the store.
type Handler func(r store.Record)

// A Follower watches a store file and hands newly appended records to a
// handler. Lines are only reported once their newline has been written.
type Follower struct {
	store     *store.Store
	fromStart bool

	fsWatcher *fsnotify.Watcher
	handler   Handler
	offset    int64
	partial   string
	done      chan struct{}
}

// NewFollower creates a follower of the given store.
func NewFollower(s *store.Store) *Follower {
	return &Follower{store: s}
}

// WithFromStart makes the follower report the records that already exist
// before reporting new ones.
func (f *Follower) WithFromStart(fromStart bool) *Follower {
	f.fromStart = fromStart
	return f
}

// Start creates the store if needed and begins watching it. Watching stops
// when ctx is canceled. The handler is called from a single goroutine.
func (f *Follower) Start(ctx context.Context, handler Handler) error {
	err := f.store.EnsureStore()
	if err != nil {
		return err
	}

	if !f.fromStart {
		info, err := os.Stat(f.store.Path())
		if err != nil {
			return err
		}

		f.offset = info.Size()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// The directory is watched so that the store can be replaced on disk.
	err = fsw.Add(filepath.Dir(f.store.Path()))
	if err != nil {
		fsw.Close()
		return err
	}

	f.fsWatcher = fsw
	f.handler = handler
	f.done = make(chan struct{})

	f.readNew()

	go f.run(ctx)

	return nil
}

// Done is closed once the follower has stopped.
func (f *Follower) Done() <-chan struct{} {
	return f.done
}

func (f *Follower) run(ctx context.Context) {
	defer close(f.done)
	defer f.fsWatcher.Close()

	name := filepath.Clean(f.store.Path())

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-f.fsWatcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != name {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				f.readNew()
			}
		case err, ok := <-f.fsWatcher.Errors:
			if !ok {
				return
			}

			log.Printf("follow %s: %v", name, err)
		}
	}
}

func (f *Follower) readNew() {
	file, err := os.Open(f.store.Path())
	if err != nil {
		log.Printf("follow: %v", err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Printf("follow: %v", err)
		return
	}

	if info.Size() < f.offset {
		// Truncated or replaced outside of the store.
		f.offset = 0
		f.partial = ""
	}

	_, err = file.Seek(f.offset, io.SeekStart)
	if err != nil {
		log.Printf("follow: %v", err)
		return
	}

	buf, err := io.ReadAll(file)
	if err != nil {
		log.Printf("follow: %v", err)
		return
	}

	f.offset += int64(len(buf))
	f.emit(f.partial + string(buf))
}

func (f *Follower) emit(chunk string) {
	lines := strings.Split(chunk, "\n")
	f.partial = lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := store.ParseLine(line)
		if err != nil {
			log.Printf("follow: skipping line: %v", err)
			continue
		}

		f.handler(r)
	}
}
