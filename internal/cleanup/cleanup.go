// Package cleanup drives the metadata writer over a set of files on a
// background goroutine and reports progress as an ordered event stream.
//
// Files are rewritten one at a time so two paths aliasing the same file
// never race, and at most one batch runs per Orchestrator.
package cleanup

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"filelens/internal/metaerr"
	"filelens/internal/processor"
)

var (
	ErrBatchInProgress = errors.New("a cleanup batch is already running")
	ErrNoCandidates    = errors.New("no files match the cleanup filter")
)

// Remover rewrites one file without its metadata.
type Remover interface {
	RemoveMetadata(path string) (processor.Result, error)
}

// Walker lists the regular files of a directory.
type Walker interface {
	Walk(root string, recursive bool) ([]string, error)
}

type Orchestrator struct {
	remover Remover
	walker  Walker
	log     *slog.Logger
	running atomic.Bool
}

func New(remover Remover, walker Walker, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{remover: remover, walker: walker, log: logger}
}

// List returns the files under root a batch with the same arguments would
// process, without touching them.
func (o *Orchestrator) List(root string, recursive bool, filter Filter) ([]string, error) {
	paths, err := o.walker.Walk(root, recursive)
	if err != nil {
		return nil, err
	}
	return candidates(paths, filter), nil
}

// ListFiles applies filter to an explicit path list.
func (o *Orchestrator) ListFiles(paths []string, filter Filter) []string {
	return candidates(paths, filter)
}

// Running reports whether a batch is in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Start launches a batch over the files under root.
func (o *Orchestrator) Start(root string, recursive bool, filter Filter) (*Batch, error) {
	if o.Running() {
		return nil, ErrBatchInProgress
	}
	paths, err := o.List(root, recursive, filter)
	if err != nil {
		return nil, err
	}
	return o.launch(paths, filter)
}

// StartFiles launches a batch over an explicit path list.
func (o *Orchestrator) StartFiles(paths []string, filter Filter) (*Batch, error) {
	return o.launch(candidates(paths, filter), filter)
}

func (o *Orchestrator) launch(paths []string, filter Filter) (*Batch, error) {
	if len(paths) == 0 {
		return nil, ErrNoCandidates
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrBatchInProgress
	}

	b := &Batch{
		ID:     uuid.NewString(),
		Total:  len(paths),
		events: make(chan Progress, 2*len(paths)+2),
		done:   make(chan struct{}),
	}
	log := o.log.With("batch_id", b.ID)
	log.Info("cleanup started", "files", b.Total, "filter", filter.String())

	go o.run(b, paths, log)
	return b, nil
}

func (o *Orchestrator) run(b *Batch, paths []string, log *slog.Logger) {
	defer close(b.done)

	b.events <- Started{Total: b.Total}
	var result Finished
	for i, path := range paths {
		b.events <- Processing{Index: i + 1, Total: b.Total, Path: path}

		res, err := o.removeOne(path)
		if err != nil {
			result.Failures++
			log.Warn("cleanup failed", "path", path, "error", err)
			b.events <- Failure{Path: path, Error: metaerr.Summary(err)}
			continue
		}
		result.Successes++
		b.events <- Success{Path: path, Removed: res.Removed, BytesSaved: res.BytesSaved}
	}

	log.Info("cleanup finished", "successes", result.Successes, "failures", result.Failures)
	b.finished = result
	o.running.Store(false)
	b.events <- result
	close(b.events)
}

// removeOne keeps a panicking writer from taking the batch down with it.
func (o *Orchestrator) removeOne(path string) (res processor.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("writer panic on %s: %v", path, r)
		}
	}()
	return o.remover.RemoveMetadata(path)
}

// candidates filters, sorts and de-duplicates paths. Blank entries are
// dropped.
func candidates(paths []string, filter Filter) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] || !filter.Match(path) {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Batch is a running cleanup. Its event channel is buffered for the whole
// batch, so the producer never waits on a slow consumer.
type Batch struct {
	ID    string
	Total int

	events   chan Progress
	done     chan struct{}
	finished Finished
}

// Events yields the batch events in order and is closed after Finished.
func (b *Batch) Events() <-chan Progress {
	return b.events
}

// Wait blocks until the last file is processed.
func (b *Batch) Wait() Finished {
	<-b.done
	return b.finished
}
