package driver

import "sync"

// ProgressStatus is the state a pass event reports.
type ProgressStatus uint8

const (
	ProgressStarted ProgressStatus = iota
	ProgressUnit
	ProgressFinished
)

// Pass names, in the order each operation runs them.
var (
	AnalyzePasses = []string{"types", "methods", "inlines"}
	FixupPasses   = []string{"collect", "emit"}
)

// ProgressEvent reports how far a pass has come.
type ProgressEvent struct {
	Pass    string
	Status  ProgressStatus
	Done    int
	Total   int
	Aborted int
}

// ProgressSink consumes progress events. Events of one pass arrive with
// non-decreasing Done.
type ProgressSink interface {
	OnProgress(ev ProgressEvent)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- ProgressEvent
}

func (s ChannelSink) OnProgress(ev ProgressEvent) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

// passProgress counts the finished units of one pass. A nil *passProgress
// reports nothing.
type passProgress struct {
	sink ProgressSink

	mu sync.Mutex
	ev ProgressEvent
}

func (o Options) startPass(pass string, total int) *passProgress {
	if o.Progress == nil {
		return nil
	}
	p := &passProgress{sink: o.Progress, ev: ProgressEvent{Pass: pass, Status: ProgressStarted, Total: total}}
	p.sink.OnProgress(p.ev)
	return p
}

func (p *passProgress) unit(aborted bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ev.Status = ProgressUnit
	p.ev.Done++
	if aborted {
		p.ev.Aborted++
	}
	p.sink.OnProgress(p.ev)
}

func (p *passProgress) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ev.Status = ProgressFinished
	p.sink.OnProgress(p.ev)
}

// WithProgress returns a copy of the session reporting to sink.
func (s *Session) WithProgress(sink ProgressSink) *Session {
	c := *s
	c.opts.Progress = sink
	return &c
}
