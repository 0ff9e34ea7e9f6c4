// Package engine implements the timed typing session and its event loop.
package engine

import (
	"errors"
	"time"

	"github.com/verte-zerg/speedtype/internal/model"
)

const (
	// DefaultCountdown is the number of seconds counted down before typing starts.
	DefaultCountdown = 3
	// DefaultDuration is the number of seconds a test runs.
	DefaultDuration = 60
)

var (
	// ErrInvalidPhase is returned when an operation is not legal in the current phase.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
	// ErrInputDisabled is returned while the next sentence is still loading.
	ErrInputDisabled = errors.New("input disabled while sentence is loading")
)

// Phase is the lifecycle state of a session.
type Phase int

// Session phases.
const (
	PhaseIdle Phase = iota
	PhaseCountingDown
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountingDown:
		return "countdown"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Active reports whether the clock is ticking in this phase.
func (p Phase) Active() bool {
	return p == PhaseCountingDown || p == PhaseRunning
}

// Session holds the state of one test attempt. It is not safe for concurrent use;
// Runner serializes access.
type Session struct {
	countdown int
	duration  int

	phase              Phase
	reference          string
	input              string
	countdownRemaining int
	timeRemaining      int
	startedAt          time.Time
	completedWords     int
	totalWords         int
	errors             []model.ErrorPosition
	loading            bool
	result             *model.Result
	pace               []float64
}

// NewSession returns an idle session. Non-positive durations fall back to the defaults.
func NewSession(countdown, duration int) *Session {
	if countdown <= 0 {
		countdown = DefaultCountdown
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Session{countdown: countdown, duration: duration}
}

// Start moves an idle or finished session into the countdown. The reference text is
// marked as loading until SetReference delivers one.
func (s *Session) Start() error {
	if s.phase != PhaseIdle && s.phase != PhaseFinished {
		return ErrInvalidPhase
	}
	s.phase = PhaseCountingDown
	s.countdownRemaining = s.countdown
	s.timeRemaining = s.duration
	s.startedAt = time.Time{}
	s.reference = ""
	s.input = ""
	s.errors = nil
	s.completedWords = 0
	s.totalWords = 0
	s.result = nil
	s.pace = nil
	s.loading = true
	return nil
}

// Tick advances the clock by one second. It returns true when the tick finished the
// session; the result is then available from Result.
func (s *Session) Tick(now time.Time) bool {
	switch s.phase {
	case PhaseCountingDown:
		if s.countdownRemaining > 0 {
			s.countdownRemaining--
		}
		if s.countdownRemaining == 0 {
			s.phase = PhaseRunning
			s.timeRemaining = s.duration
			s.startedAt = now
		}
		return false
	case PhaseRunning:
		if s.timeRemaining > 0 {
			s.timeRemaining--
		}
		s.pace = append(s.pace, LiveWPM(s.totalWords+s.completedWords, now.Sub(s.startedAt)))
		if s.timeRemaining == 0 {
			s.phase = PhaseFinished
			if _, err := s.Finalize(now); err != nil {
				return false
			}
			return true
		}
		return false
	default:
		return false
	}
}

// SetInput replaces the typed text and rescores it against the reference. It returns
// true when the input completed the reference; the session then waits for a new one.
func (s *Session) SetInput(value string) (bool, error) {
	if s.phase != PhaseRunning {
		return false, ErrInvalidPhase
	}
	if s.loading {
		return false, ErrInputDisabled
	}
	s.input = value
	s.errors = ErrorPositions(value, s.reference)
	s.completedWords = CompletedWords(value, s.reference)
	if !SentenceComplete(value, s.reference) {
		return false, nil
	}
	s.totalWords += s.completedWords
	s.input = ""
	s.errors = nil
	s.completedWords = 0
	s.loading = true
	return true, nil
}

// SetReference installs a new reference text. It returns false and changes nothing when
// the session is not waiting for one, so late deliveries are dropped.
func (s *Session) SetReference(text string) bool {
	if !s.phase.Active() || !s.loading {
		return false
	}
	s.reference = text
	s.input = ""
	s.errors = nil
	s.completedWords = 0
	s.loading = false
	return true
}

// Reset returns a finished session to idle, discarding all state.
func (s *Session) Reset() error {
	if s.phase != PhaseFinished && s.phase != PhaseIdle {
		return ErrInvalidPhase
	}
	*s = *NewSession(s.countdown, s.duration)
	return nil
}

// Finalize computes the result of a finished session. Degenerate inputs (no elapsed
// time, empty input) yield a wpm of 0 and an accuracy of 100 instead of NaN.
func (s *Session) Finalize(now time.Time) (model.Result, error) {
	if s.phase != PhaseFinished {
		return model.Result{}, ErrInvalidPhase
	}
	errs := make([]model.ErrorPosition, len(s.errors))
	copy(errs, s.errors)
	elapsed := time.Duration(0)
	if !s.startedAt.IsZero() {
		elapsed = now.Sub(s.startedAt)
	}
	s.result = &model.Result{
		WPM:            WPM(s.totalWords, elapsed),
		Accuracy:       Accuracy(len(s.errors), len([]rune(s.input))),
		DetailedErrors: errs,
		Words:          s.totalWords,
		StartedAt:      s.startedAt,
		FinishedAt:     now,
	}
	return *s.result, nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Reference returns the current reference text.
func (s *Session) Reference() string { return s.reference }

// Input returns the current typed text.
func (s *Session) Input() string { return s.input }

// Loading reports whether input is disabled pending a new reference.
func (s *Session) Loading() bool { return s.loading }

// Result returns the final result once the session is finished.
func (s *Session) Result() (model.Result, bool) {
	if s.result == nil {
		return model.Result{}, false
	}
	return *s.result, true
}

// Snapshot is a read-only copy of session state for views. Revision grows with every
// change a Runner publishes, so views can discard snapshots older than one they hold.
type Snapshot struct {
	Revision           uint64                `json:"revision"`
	Phase              Phase                 `json:"-"`
	PhaseName          string                `json:"phase"`
	Reference          string                `json:"reference"`
	Input              string                `json:"input"`
	CountdownRemaining int                   `json:"countdownRemaining"`
	TimeRemaining      int                   `json:"timeRemaining"`
	CompletedWords     int                   `json:"completedWords"`
	TotalWords         int                   `json:"totalWords"`
	Errors             []model.ErrorPosition `json:"errors"`
	SentenceLoading    bool                  `json:"sentenceLoading"`
	Pace               []float64             `json:"pace,omitempty"`
	Result             *model.Result         `json:"result,omitempty"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:              s.phase,
		PhaseName:          s.phase.String(),
		Reference:          s.reference,
		Input:              s.input,
		CountdownRemaining: s.countdownRemaining,
		TimeRemaining:      s.timeRemaining,
		CompletedWords:     s.completedWords,
		TotalWords:         s.totalWords,
		SentenceLoading:    s.loading,
	}
	if len(s.errors) > 0 {
		snap.Errors = append([]model.ErrorPosition(nil), s.errors...)
	}
	if len(s.pace) > 0 {
		snap.Pace = append([]float64(nil), s.pace...)
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}
