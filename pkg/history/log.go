package history

import (
	"errors"
	"log/slog"
)

var (
	// ErrNothingToUndo is returned by Undo when the undo stack is empty
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when the redo stack is empty
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrBatchOpen is returned by Undo and Redo while a batch is still open
	ErrBatchOpen = errors.New("batch still open")
)

// Step is one undo/redo unit: a single change or a closed batch
type Step[T comparable] struct {
	Label   string
	Changes []Change[T]
}

// Log is a linear undo/redo history. It is not safe for concurrent use;
// like the scene it serves, it lives on one logical thread.
type Log[T comparable] struct {
	target Target[T]

	undo []Step[T]
	redo []Step[T]

	open      *Step[T]
	depth     int
	replaying bool

	maxDepth  int
	logger    *slog.Logger
	listeners []*listener
}

type settings struct {
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Log
type Option func(*settings)

// WithMaxDepth caps the number of undo steps; the oldest are dropped first. 0 means unlimited.
func WithMaxDepth(n int) Option {
	return func(s *settings) { s.maxDepth = n }
}

// WithLogger sets the logger used for history diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// New creates an empty log that replays changes against target
func New[T comparable](target Target[T], opts ...Option) *Log[T] {
	s := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Log[T]{
		target:   target,
		maxDepth: s.maxDepth,
		logger:   s.logger,
	}
}

// Record appends a change. Inside a batch it joins the batch; otherwise it
// becomes its own step labelled with label. Either way the redo stack is cleared.
// Changes arriving while the log itself is replaying are ignored.
func (l *Log[T]) Record(label string, change Change[T]) {
	if l.replaying {
		l.logger.Debug("ignoring change recorded during replay", slog.String("change", change.String()))
		return
	}
	recordsTotal.WithLabelValues(change.Kind.String()).Inc()

	if l.open != nil {
		l.open.Changes = append(l.open.Changes, change)
		return
	}
	l.push(Step[T]{Label: label, Changes: []Change[T]{change}})
}

// push commits a step to the undo stack
func (l *Log[T]) push(step Step[T]) {
	l.undo = append(l.undo, step)
	l.redo = nil
	if l.maxDepth > 0 && len(l.undo) > l.maxDepth {
		dropped := len(l.undo) - l.maxDepth
		l.undo = append([]Step[T](nil), l.undo[dropped:]...)
		l.logger.Debug("history trimmed", slog.Int("dropped", dropped))
	}
	l.notify()
}

// Undo reverts the most recent step, newest change first
func (l *Log[T]) Undo() error {
	if l.open != nil {
		return ErrBatchOpen
	}
	if len(l.undo) == 0 {
		return ErrNothingToUndo
	}

	step := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]

	l.replay(func() {
		for i := len(step.Changes) - 1; i >= 0; i-- {
			step.Changes[i].Revert(l.target)
		}
	})

	l.redo = append(l.redo, step)
	undoTotal.Inc()
	l.logger.Debug("undo", slog.String("label", step.Label), slog.Int("changes", len(step.Changes)))
	l.notify()
	return nil
}

// Redo re-applies the most recently undone step, oldest change first
func (l *Log[T]) Redo() error {
	if l.open != nil {
		return ErrBatchOpen
	}
	if len(l.redo) == 0 {
		return ErrNothingToRedo
	}

	step := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]

	l.replay(func() {
		for _, change := range step.Changes {
			change.Apply(l.target)
		}
	})

	l.undo = append(l.undo, step)
	redoTotal.Inc()
	l.logger.Debug("redo", slog.String("label", step.Label), slog.Int("changes", len(step.Changes)))
	l.notify()
	return nil
}

func (l *Log[T]) replay(fn func()) {
	l.replaying = true
	defer func() { l.replaying = false }()
	fn()
}

// Replaying reports whether the log is currently applying or reverting a step
func (l *Log[T]) Replaying() bool { return l.replaying }

// CanUndo reports whether Undo would succeed
func (l *Log[T]) CanUndo() bool { return l.open == nil && len(l.undo) > 0 }

// CanRedo reports whether Redo would succeed
func (l *Log[T]) CanRedo() bool { return l.open == nil && len(l.redo) > 0 }

// UndoLabel returns the label of the step Undo would revert
func (l *Log[T]) UndoLabel() string {
	if len(l.undo) == 0 {
		return ""
	}
	return l.undo[len(l.undo)-1].Label
}

// RedoLabel returns the label of the step Redo would apply
func (l *Log[T]) RedoLabel() string {
	if len(l.redo) == 0 {
		return ""
	}
	return l.redo[len(l.redo)-1].Label
}

// Len returns the undo and redo stack depths
func (l *Log[T]) Len() (undo, redo int) {
	return len(l.undo), len(l.redo)
}

// Steps returns a copy of the undo stack, oldest first
func (l *Log[T]) Steps() []Step[T] {
	return append([]Step[T](nil), l.undo...)
}

// Clear drops all history. An open batch stays open but loses its records.
func (l *Log[T]) Clear() {
	l.undo = nil
	l.redo = nil
	if l.open != nil {
		l.open.Changes = nil
	}
	l.notify()
}

type listener struct {
	fn func()
}

// OnChange registers fn to run after every committed step, undo, redo or clear.
// The returned function unsubscribes.
func (l *Log[T]) OnChange(fn func()) (unsubscribe func()) {
	entry := &listener{fn: fn}
	l.listeners = append(l.listeners, entry)
	return func() {
		for i, existing := range l.listeners {
			if existing == entry {
				l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
				return
			}
		}
	}
}

func (l *Log[T]) notify() {
	listeners := append([]*listener(nil), l.listeners...)
	for _, entry := range listeners {
		entry.fn()
	}
}
