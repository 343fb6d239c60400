// Package metrics defines the observer a counting run reports to, with a
// no-op default and a Prometheus implementation.
package metrics

import "time"

// Flush describes one completed spill.
type Flush struct {
	// Records is the number of records in the new accumulation file.
	Records int64
	// Merged counts snapshot entries folded into an existing record.
	Merged int64
	// Added counts snapshot entries written as new records.
	Added    int64
	Duration time.Duration
	Terminal bool
}

// Observer receives run events. Implementations must be safe for concurrent
// use; workers call SequenceCounted from many goroutines.
type Observer interface {
	SequenceCounted(increments int)
	BackpressureWait()
	FlushCompleted(f Flush)
	FlushFailed(err error)
	Footprint(bytes int64)
}

// Noop discards every event.
type Noop struct{}

func (Noop) SequenceCounted(int)  {}
func (Noop) BackpressureWait()    {}
func (Noop) FlushCompleted(Flush) {}
func (Noop) FlushFailed(error)    {}
func (Noop) Footprint(int64)      {}

// OrNoop returns o, or Noop when o is nil.
func OrNoop(o Observer) Observer {
	if o == nil {
		return Noop{}
	}
	return o
}
