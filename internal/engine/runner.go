package engine

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/speedtype/internal/logger"
)

// DefaultFallback is used when the sentence source fails and no fallback is configured.
const DefaultFallback = "The quick brown fox jumps over the lazy dog."

// SentenceSource supplies reference sentences. Implementations may block on network I/O
// and should honour ctx cancellation.
type SentenceSource interface {
	NextSentence(ctx context.Context) (string, error)
}

// Options configures a Runner.
type Options struct {
	Countdown    int
	Duration     int
	TickInterval time.Duration
	Fallback     string
	Clock        Clock
	Scheduler    Scheduler
	Logger       *logger.Logger
}

// Runner drives a Session from a single event loop. Ticks, keystrokes and sentence
// deliveries are all applied in that loop, so the Session never sees concurrent access.
type Runner struct {
	opts   Options
	source SentenceSource
	events chan interface{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// Owned by the loop goroutine.
	session     *Session
	epoch       uint64
	fetchSeq    uint64
	revision    uint64
	tick        Handle
	fetchCancel context.CancelFunc
	subs        []chan Snapshot
}

type (
	evtStart    struct{ reply chan Snapshot }
	evtReset    struct{ reply chan resetReply }
	evtSnapshot struct{ reply chan Snapshot }
	evtInput    struct {
		value string
		reply chan inputReply
	}
	evtTick     struct{ epoch uint64 }
	evtSentence struct {
		epoch uint64
		seq   uint64
		text  string
		err   error
	}
	evtSubscribe struct {
		buffer int
		reply  chan (<-chan Snapshot)
	}
	evtUnsubscribe struct {
		ch   <-chan Snapshot
		done chan struct{}
	}
	evtClose struct{}
)

type inputReply struct {
	snap Snapshot
	err  error
}

type resetReply struct {
	snap Snapshot
	err  error
}

// NewRunner creates a Runner with an idle session and starts its event loop.
func NewRunner(source SentenceSource, opts Options) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if strings.TrimSpace(opts.Fallback) == "" {
		opts.Fallback = DefaultFallback
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		opts:    opts,
		source:  source,
		events:  make(chan interface{}, 16),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		session: NewSession(opts.Countdown, opts.Duration),
	}
	go r.loop()
	return r
}

// Start begins a new attempt. An attempt already counting down or running is abandoned:
// its timer and pending sentence fetch are cancelled first.
func (r *Runner) Start() Snapshot {
	reply := make(chan Snapshot, 1)
	if !r.post(evtStart{reply: reply}) {
		return Snapshot{}
	}
	return r.await(reply)
}

// SetInput applies a new input value and returns the resulting state.
func (r *Runner) SetInput(value string) (Snapshot, error) {
	reply := make(chan inputReply, 1)
	if !r.post(evtInput{value: value, reply: reply}) {
		return Snapshot{}, ErrInvalidPhase
	}
	select {
	case res := <-reply:
		return res.snap, res.err
	case <-r.done:
		return Snapshot{}, ErrInvalidPhase
	}
}

// Reset returns a finished session to idle.
func (r *Runner) Reset() (Snapshot, error) {
	reply := make(chan resetReply, 1)
	if !r.post(evtReset{reply: reply}) {
		return Snapshot{}, ErrInvalidPhase
	}
	select {
	case res := <-reply:
		return res.snap, res.err
	case <-r.done:
		return Snapshot{}, ErrInvalidPhase
	}
}

// Snapshot returns the current state.
func (r *Runner) Snapshot() Snapshot {
	reply := make(chan Snapshot, 1)
	if !r.post(evtSnapshot{reply: reply}) {
		return Snapshot{}
	}
	return r.await(reply)
}

// Subscribe returns a channel receiving a snapshot after every state change. Slow
// readers only see the latest state. The channel is closed by Close.
func (r *Runner) Subscribe(buffer int) <-chan Snapshot {
	if buffer <= 0 {
		buffer = 1
	}
	reply := make(chan (<-chan Snapshot), 1)
	if !r.post(evtSubscribe{buffer: buffer, reply: reply}) {
		ch := make(chan Snapshot)
		close(ch)
		return ch
	}
	select {
	case ch := <-reply:
		return ch
	case <-r.done:
		ch := make(chan Snapshot)
		close(ch)
		return ch
	}
}

// Unsubscribe closes and forgets a channel returned by Subscribe.
func (r *Runner) Unsubscribe(ch <-chan Snapshot) {
	done := make(chan struct{})
	if !r.post(evtUnsubscribe{ch: ch, done: done}) {
		return
	}
	select {
	case <-done:
	case <-r.done:
	}
}

// Close stops the event loop, cancels pending work and closes subscriber channels.
func (r *Runner) Close() {
	r.once.Do(func() {
		if r.post(evtClose{}) {
			<-r.done
		}
		r.cancel()
	})
}

// Done is closed once the event loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) post(ev interface{}) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *Runner) await(reply chan Snapshot) Snapshot {
	select {
	case snap := <-reply:
		return snap
	case <-r.done:
		return Snapshot{}
	}
}

func (r *Runner) loop() {
	defer close(r.done)
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.Logger.Errorf("session loop panic: %v\n%s", rec, debug.Stack())
			r.stopActive()
			r.closeSubs()
		}
	}()
	for ev := range r.events {
		switch e := ev.(type) {
		case evtStart:
			r.handleStart()
			e.reply <- r.snapshot()
		case evtInput:
			snap, err := r.handleInput(e.value)
			e.reply <- inputReply{snap: snap, err: err}
		case evtReset:
			err := r.session.Reset()
			if err == nil {
				r.emit()
			}
			e.reply <- resetReply{snap: r.snapshot(), err: err}
		case evtSnapshot:
			e.reply <- r.snapshot()
		case evtSubscribe:
			ch := make(chan Snapshot, e.buffer)
			r.subs = append(r.subs, ch)
			e.reply <- ch
		case evtUnsubscribe:
			r.removeSub(e.ch)
			close(e.done)
		case evtTick:
			r.handleTick(e)
		case evtSentence:
			r.handleSentence(e)
		case evtClose:
			r.stopActive()
			r.closeSubs()
			return
		}
	}
}

func (r *Runner) handleStart() {
	r.stopActive()
	r.epoch++
	r.session = NewSession(r.opts.Countdown, r.opts.Duration)
	if err := r.session.Start(); err != nil {
		r.opts.Logger.Errorf("failed to start session: %v", err)
		return
	}
	r.opts.Logger.Debugf("session %d started", r.epoch)
	r.requestSentence()
	r.scheduleTick()
	r.emit()
}

func (r *Runner) handleInput(value string) (Snapshot, error) {
	completed, err := r.session.SetInput(value)
	if err != nil {
		return r.snapshot(), err
	}
	if completed {
		r.opts.Logger.Debugf("sentence completed, total words %d", r.session.totalWords)
		r.requestSentence()
	}
	r.emit()
	return r.snapshot(), nil
}

func (r *Runner) handleTick(e evtTick) {
	if e.epoch != r.epoch || !r.session.Phase().Active() {
		r.opts.Logger.Tracef("dropping stale tick for session %d", e.epoch)
		return
	}
	r.tick = nil
	finished := r.session.Tick(r.opts.Clock.Now())
	if finished {
		r.stopActive()
		if res, ok := r.session.Result(); ok {
			r.opts.Logger.Infof("session %d finished: %d wpm, %.2f%% accuracy", r.epoch, res.WPM, res.Accuracy)
		}
	} else if r.session.Phase().Active() {
		r.scheduleTick()
	}
	r.emit()
}

func (r *Runner) handleSentence(e evtSentence) {
	if e.epoch != r.epoch || e.seq != r.fetchSeq {
		r.opts.Logger.Tracef("dropping sentence for superseded request")
		return
	}
	if r.fetchCancel != nil {
		r.fetchCancel()
		r.fetchCancel = nil
	}
	text := strings.TrimSpace(e.text)
	if e.err != nil {
		r.opts.Logger.Warnf("sentence source failed, using fallback: %v", e.err)
		text = r.opts.Fallback
	} else if text == "" {
		r.opts.Logger.Warnf("sentence source returned empty text, using fallback")
		text = r.opts.Fallback
	}
	if !r.session.SetReference(text) {
		r.opts.Logger.Debugf("dropping sentence delivered in phase %s", r.session.Phase())
		return
	}
	r.emit()
}

func (r *Runner) scheduleTick() {
	if r.tick != nil {
		r.tick.Cancel()
	}
	epoch := r.epoch
	r.tick = r.opts.Scheduler.AfterFunc(r.opts.TickInterval, func() {
		r.post(evtTick{epoch: epoch})
	})
}

func (r *Runner) requestSentence() {
	if r.fetchCancel != nil {
		r.fetchCancel()
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.fetchCancel = cancel
	r.fetchSeq++
	epoch, seq := r.epoch, r.fetchSeq
	go func() {
		text, err := r.source.NextSentence(ctx)
		if ctx.Err() != nil {
			return
		}
		r.post(evtSentence{epoch: epoch, seq: seq, text: text, err: err})
	}()
}

// stopActive cancels the pending tick and sentence fetch.
func (r *Runner) stopActive() {
	if r.tick != nil {
		r.tick.Cancel()
		r.tick = nil
	}
	if r.fetchCancel != nil {
		r.fetchCancel()
		r.fetchCancel = nil
	}
}

// snapshot tags the session state with the revision of the last change.
func (r *Runner) snapshot() Snapshot {
	snap := r.session.Snapshot()
	snap.Revision = r.revision
	return snap
}

func (r *Runner) emit() {
	r.revision++
	snap := r.snapshot()
	for _, ch := range r.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (r *Runner) removeSub(target <-chan Snapshot) {
	for i, ch := range r.subs {
		if ch == target {
			close(ch)
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *Runner) closeSubs() {
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
}
