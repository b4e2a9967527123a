package lib

import "sync"

type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityFailure
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityFailure:
		return "failure"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// ProgressSink receives processed/total after every completed job.
type ProgressSink interface {
	OnProgress(processed, total int)
}

// LogSink receives user-facing log lines tagged with a severity.
type LogSink interface {
	OnLog(message string, severity Severity)
}

type event struct {
	progress bool
	done     int
	total    int
	message  string
	severity Severity
}

// Dispatcher forwards progress and log events to the presentation sinks on
// its own goroutine. Posting never blocks the caller: events queue in an
// unbounded mailbox and are delivered in posting order.
type Dispatcher struct {
	progress ProgressSink
	logs     LogSink

	mu      sync.Mutex
	pending []event
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewDispatcher starts delivery. Either sink may be nil.
func NewDispatcher(progress ProgressSink, logs LogSink) *Dispatcher {
	d := &Dispatcher{
		progress: progress,
		logs:     logs,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) Progress(processed, total int) {
	d.post(event{progress: true, done: processed, total: total})
}

func (d *Dispatcher) Log(message string, severity Severity) {
	d.post(event{message: message, severity: severity})
}

// Close delivers whatever is still queued and waits for the delivery
// goroutine to exit. Events posted after Close are dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.signal()
	}
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) post(ev event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = append(d.pending, ev)
	d.signal()
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for range d.wake {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		for _, ev := range batch {
			d.deliver(ev)
		}
		if closed {
			return
		}
	}
}

func (d *Dispatcher) deliver(ev event) {
	if ev.progress {
		if d.progress != nil {
			d.progress.OnProgress(ev.done, ev.total)
		}
		return
	}
	if d.logs != nil {
		d.logs.OnLog(ev.message, ev.severity)
	}
}
