package history

import "log/slog"

// Batch is the guard returned by BeginBatch. End closes the batch exactly once,
// so `defer log.BeginBatch("...").End()` keeps an error path from leaving it open.
type Batch struct {
	end  func()
	done bool
}

// End closes the batch. Calling End more than once has no further effect.
func (b *Batch) End() {
	if b == nil || b.done {
		return
	}
	b.done = true
	b.end()
}

// BeginBatch groups every change recorded until the matching End into one step.
// Batches nest: only the outermost label is kept and only the outermost End
// commits. A batch that recorded nothing adds no step.
func (l *Log[T]) BeginBatch(label string) *Batch {
	if l.open == nil {
		l.open = &Step[T]{Label: label}
	}
	l.depth++
	return &Batch{end: l.endBatch}
}

func (l *Log[T]) endBatch() {
	if l.depth == 0 {
		return
	}
	l.depth--
	if l.depth > 0 {
		return
	}

	step := *l.open
	l.open = nil
	if len(step.Changes) == 0 {
		l.logger.Debug("empty batch discarded", slog.String("label", step.Label))
		return
	}
	batchesTotal.Inc()
	l.push(step)
}

// InBatch reports whether a batch is open
func (l *Log[T]) InBatch() bool {
	return l.open != nil
}

// Do runs fn inside a batch. The batch is closed even if fn returns an error or panics.
func (l *Log[T]) Do(label string, fn func() error) error {
	batch := l.BeginBatch(label)
	defer batch.End()
	return fn()
}
