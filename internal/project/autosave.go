package project

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultAutosaveDelay is how long the autosaver waits after the last
// mutation before writing.
const DefaultAutosaveDelay = 2 * time.Second

// Autosaver debounces project writes: rapid mutation bursts collapse into
// one save once the editor goes quiet.
type Autosaver struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	delay   time.Duration
	save    func() error
	log     *logrus.Entry
}

// NewAutosaver creates an autosaver calling save after each quiet period.
func NewAutosaver(delay time.Duration, save func() error, log *logrus.Logger) *Autosaver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		delay: delay,
		save:  save,
		log:   log.WithField("component", "autosave"),
	}
}

// Trigger notes a mutation and (re)starts the quiet-period timer.
func (a *Autosaver) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	if !a.pending {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.mu.Unlock()

	if err := a.save(); err != nil {
		a.log.WithError(err).Error("autosave failed")
	}
}

// Flush saves immediately if a write is pending, for shutdown and project
// switches.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	pending := a.pending
	a.pending = false
	a.mu.Unlock()

	if pending {
		if err := a.save(); err != nil {
			a.log.WithError(err).Error("flush failed")
		}
	}
}

// Stop cancels any pending save without writing.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = false
}
