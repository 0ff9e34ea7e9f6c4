package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type manualTask struct {
	fn        func()
	cancelled bool
	fired     bool
}

type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualHandle struct {
	s    *manualScheduler
	task *manualTask
}

func (h manualHandle) Cancel() {
	h.s.mu.Lock()
	h.task.cancelled = true
	h.s.mu.Unlock()
}

func (s *manualScheduler) AfterFunc(_ time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{fn: fn}
	s.tasks = append(s.tasks, task)
	return manualHandle{s: s, task: task}
}

// pending returns tasks that are neither fired nor cancelled.
func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTask
	for _, task := range s.tasks {
		if !task.fired && !task.cancelled {
			out = append(out, task)
		}
	}
	return out
}

// fire runs the single pending task, as a timer would. The loop re-arms asynchronously,
// so it waits for the next timer to appear.
func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	var pending []*manualTask
	require.Eventually(t, func() bool {
		pending = s.pending()
		return len(pending) == 1
	}, time.Second, time.Millisecond, "expected exactly one armed timer")
	s.mu.Lock()
	pending[0].fired = true
	s.mu.Unlock()
	pending[0].fn()
}

type staticSource struct {
	text string
	err  error
}

func (s staticSource) NextSentence(context.Context) (string, error) {
	return s.text, s.err
}

type ctxSource struct {
	mu   sync.Mutex
	ctxs []context.Context
}

func (s *ctxSource) NextSentence(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.ctxs = append(s.ctxs, ctx)
	s.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

func (s *ctxSource) contexts() []context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]context.Context(nil), s.ctxs...)
}

func newTestRunner(t *testing.T, source SentenceSource) (*Runner, *manualScheduler, *fakeClock) {
	t.Helper()
	sched := &manualScheduler{}
	clock := &fakeClock{now: t0}
	r := NewRunner(source, Options{
		Countdown: 3,
		Duration:  60,
		Fallback:  "fallback text",
		Clock:     clock,
		Scheduler: sched,
	})
	t.Cleanup(r.Close)
	return r, sched, clock
}

func waitLoaded(t *testing.T, r *Runner) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = r.Snapshot()
		return !snap.SentenceLoading
	}, time.Second, 5*time.Millisecond)
	return snap
}

func TestRunnerFullSession(t *testing.T) {
	r, sched, clock := newTestRunner(t, staticSource{text: "cat dog"})

	snap := r.Start()
	assert.Equal(t, PhaseCountingDown, snap.Phase)
	assert.Equal(t, 3, snap.CountdownRemaining)
	snap = waitLoaded(t, r)
	assert.Equal(t, "cat dog", snap.Reference)

	for i := 0; i < 3; i++ {
		sched.fire(t)
	}
	assert.Equal(t, PhaseRunning, r.Snapshot().Phase)

	snap, err := r.SetInput("cat dog")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalWords)
	assert.Equal(t, "", snap.Input)
	waitLoaded(t, r)

	for i := 0; i < 60; i++ {
		clock.Advance(time.Second)
		sched.fire(t)
	}
	snap = r.Snapshot()
	assert.Equal(t, PhaseFinished, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 2, snap.Result.WPM)
	assert.Empty(t, sched.pending(), "no timer may stay armed after finishing")

	_, err = r.SetInput("late")
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestRunnerRestartCancelsPriorTimer(t *testing.T) {
	r, sched, _ := newTestRunner(t, staticSource{text: "abc"})
	r.Start()
	waitLoaded(t, r)
	for i := 0; i < 5; i++ {
		sched.fire(t)
	}
	require.Equal(t, 58, r.Snapshot().TimeRemaining)

	stale := sched.pending()
	require.Len(t, stale, 1)

	snap := r.Start()
	assert.Equal(t, PhaseCountingDown, snap.Phase)
	assert.True(t, stale[0].cancelled)

	// A timer that fired just before cancellation must not touch the new session.
	stale[0].fn()
	snap = r.Snapshot()
	assert.Equal(t, 3, snap.CountdownRemaining)
	assert.Equal(t, 60, snap.TimeRemaining)
	assert.Len(t, sched.pending(), 1)
}

func TestRunnerRestartCancelsPendingFetch(t *testing.T) {
	src := &ctxSource{}
	r, _, _ := newTestRunner(t, src)
	r.Start()
	require.Eventually(t, func() bool { return len(src.contexts()) == 1 }, time.Second, 5*time.Millisecond)

	r.Start()
	require.Eventually(t, func() bool { return len(src.contexts()) == 2 }, time.Second, 5*time.Millisecond)
	ctxs := src.contexts()
	assert.Error(t, ctxs[0].Err())
	assert.NoError(t, ctxs[1].Err())
	assert.True(t, r.Snapshot().SentenceLoading)
}

func TestRunnerFallbackOnSourceError(t *testing.T) {
	r, _, _ := newTestRunner(t, staticSource{err: errors.New("quota exceeded")})
	r.Start()
	snap := waitLoaded(t, r)
	assert.Equal(t, "fallback text", snap.Reference)
}

func TestRunnerFallbackOnEmptySentence(t *testing.T) {
	r, _, _ := newTestRunner(t, staticSource{text: "   "})
	r.Start()
	snap := waitLoaded(t, r)
	assert.Equal(t, "fallback text", snap.Reference)
}

func TestRunnerInputDisabledWhileLoading(t *testing.T) {
	src := &ctxSource{}
	r, sched, _ := newTestRunner(t, src)
	r.Start()
	for i := 0; i < 3; i++ {
		sched.fire(t)
	}
	_, err := r.SetInput("a")
	assert.ErrorIs(t, err, ErrInputDisabled)
}

func TestRunnerFinishCancelsPendingFetch(t *testing.T) {
	src := &ctxSource{}
	r, sched, _ := newTestRunner(t, src)
	r.Start()
	for i := 0; i < 63; i++ {
		sched.fire(t)
	}
	snap := r.Snapshot()
	assert.Equal(t, PhaseFinished, snap.Phase)
	require.Eventually(t, func() bool {
		ctxs := src.contexts()
		return len(ctxs) == 1 && ctxs[0].Err() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "", r.Snapshot().Reference)
}

func TestRunnerSubscribe(t *testing.T) {
	r, sched, _ := newTestRunner(t, staticSource{text: "abc"})
	ch := r.Subscribe(8)
	r.Start()

	var last Snapshot
	require.Eventually(t, func() bool {
		for {
			select {
			case snap := <-ch:
				last = snap
			default:
				return !last.SentenceLoading && last.Reference == "abc"
			}
		}
	}, time.Second, 5*time.Millisecond)

	sched.fire(t)
	select {
	case snap := <-ch:
		assert.Equal(t, 2, snap.CountdownRemaining)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot after tick")
	}

	r.Close()
	_, ok := <-ch
	for ok {
		_, ok = <-ch
	}
	assert.False(t, ok)
}

func TestRunnerReset(t *testing.T) {
	r, sched, _ := newTestRunner(t, staticSource{text: "abc"})
	_, err := r.Reset()
	require.NoError(t, err)

	r.Start()
	_, err = r.Reset()
	assert.ErrorIs(t, err, ErrInvalidPhase)

	for i := 0; i < 63; i++ {
		sched.fire(t)
	}
	snap, err := r.Reset()
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, snap.Phase)
}

func TestRunnerClosedCallsReturnZero(t *testing.T) {
	r, _, _ := newTestRunner(t, staticSource{text: "abc"})
	r.Close()
	<-r.Done()
	assert.Equal(t, Snapshot{}, r.Snapshot())
	_, err := r.SetInput("x")
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestRunnerRevisionGrows(t *testing.T) {
	r, sched, _ := newTestRunner(t, staticSource{text: "abc"})
	first := r.Start()
	loaded := waitLoaded(t, r)
	assert.Greater(t, loaded.Revision, first.Revision)

	sched.fire(t)
	ticked := r.Snapshot()
	assert.Greater(t, ticked.Revision, loaded.Revision)

	// A rejected input changes nothing, so the revision stays put.
	_, err := r.SetInput("a")
	require.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, ticked.Revision, r.Snapshot().Revision)
}

func TestRunnerUnsubscribe(t *testing.T) {
	r, _, _ := newTestRunner(t, staticSource{text: "abc"})
	kept := r.Subscribe(4)
	dropped := r.Subscribe(4)
	r.Unsubscribe(dropped)

	_, ok := <-dropped
	assert.False(t, ok, "unsubscribed channel is closed")

	r.Start()
	select {
	case snap := <-kept:
		assert.Equal(t, PhaseCountingDown, snap.Phase)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber must still receive snapshots")
	}

	// Unknown channels are ignored.
	r.Unsubscribe(make(chan Snapshot))
}
