package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cookgems/pkg/cookbook"
	"github.com/matzehuels/cookgems/pkg/geminstall"
	"github.com/matzehuels/cookgems/pkg/runstore"
)

// RecorderOptions describes the run being recorded.
type RecorderOptions struct {
	Source    string           // Gem source of the run
	Mode      string           // Installer mode
	Cookbooks []string         // Cookbook names, in order
	Logger    *log.Logger      // Receives store errors (default: log.Default())
	Now       func() time.Time // Clock (default: time.Now)
}

// Recorder builds a [runstore.Run] from sink events. The run is saved when
// it starts and again when it finishes or fails. Store errors are logged,
// never returned, since sink results are ignored by the installer.
type Recorder struct {
	store runstore.Store
	opts  RecorderOptions

	mu  sync.Mutex
	run runstore.Run
	err error
}

// NewRecorder creates a recorder with a fresh run ID. A nil store keeps the
// run in memory only.
func NewRecorder(store runstore.Store, opts RecorderOptions) *Recorder {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Recorder{
		store: store,
		opts:  opts,
		run:   runstore.Run{ID: uuid.NewString()},
	}
}

// ID returns the run ID.
func (r *Recorder) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run.ID
}

// Run returns a copy of the run as recorded so far.
func (r *Recorder) Run() *runstore.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.run
	run.Gems = slices.Clone(r.run.Gems)
	run.Events = slices.Clone(r.run.Events)
	run.Cookbooks = slices.Clone(r.run.Cookbooks)
	return &run
}

// Err returns the last store error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) Start(gems []cookbook.GemRequirement) {
	r.mu.Lock()
	r.run.Status = runstore.StatusRunning
	r.run.Source = r.opts.Source
	r.run.Mode = r.opts.Mode
	r.run.Cookbooks = slices.Clone(r.opts.Cookbooks)
	r.run.Gems = slices.Clone(gems)
	r.run.StartedAt = r.opts.Now().UTC()
	r.mu.Unlock()
	r.save()
}

func (r *Recorder) Installing(name, version string) {
	r.event(runstore.ActionInstalled, name, version)
}

func (r *Recorder) Using(name, version string) {
	r.event(runstore.ActionUsed, name, version)
}

func (r *Recorder) Finished() {
	r.finish(runstore.StatusSucceeded, nil)
}

func (r *Recorder) Failed(err error) {
	r.finish(runstore.StatusFailed, err)
}

func (r *Recorder) event(a runstore.Action, name, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run.Events = append(r.run.Events, runstore.GemEvent{
		Action:  a,
		Name:    name,
		Version: version,
		At:      r.opts.Now().UTC(),
	})
}

func (r *Recorder) finish(status runstore.Status, err error) {
	r.mu.Lock()
	// Only the first terminal event counts.
	if r.run.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	now := r.opts.Now().UTC()
	r.run.Status = status
	r.run.FinishedAt = &now
	if err != nil {
		r.run.Error = err.Error()
	}
	r.mu.Unlock()
	r.save()
}

func (r *Recorder) save() {
	if r.store == nil {
		return
	}
	run := r.Run()
	if err := r.store.Save(context.Background(), run); err != nil {
		r.opts.Logger.Warn("could not save run", "run", run.ID, "err", err)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}
}

var _ geminstall.EventSink = (*Recorder)(nil)
