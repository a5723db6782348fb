package location

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults for the acquisition quality gates.
const (
	DefaultHDOPThreshold     = 100
	DefaultAccuracyThreshold = 50.0 // meters
	DefaultMaxFixTime        = 90 * time.Second
	DefaultPollInterval      = 1 * time.Second
)

// Config controls one acquisition engine.
type Config struct {
	// Constellation is the GNSS constellation bitmap. The zero value
	// selects GPS+GLONASS.
	Constellation Constellation

	// HDOPThreshold is the inclusive horizontal-DOP gate, clamped to
	// [0,100] at construction. Zero selects the default of 100.
	HDOPThreshold int

	// AccuracyThreshold is the inclusive horizontal-accuracy gate in
	// meters. Zero selects the default of 50.0.
	AccuracyThreshold float64

	// MaxFixTime bounds one attempt. Zero selects the default of 90s.
	MaxFixTime time.Duration

	// PollInterval is the delay between position polls. Zero selects 1s.
	PollInterval time.Duration
}

// Modem issues AT commands to the cellular modem and reports power state.
// Replies are returned with CR/LF stripped; a reply may be empty when the
// command completed with no data line.
type Modem interface {
	Command(cmd string) (string, error)
	CommandTimeout(cmd string, timeout time.Duration) (string, error)
	IsPowered() bool
}

// Detector identifies the modem model behind the AT interface.
type Detector interface {
	Detect() Model
}

// Antenna switches power to an active GNSS antenna.
type Antenna interface {
	Set(on bool) error
}

// Publisher delivers location events to the cloud.
type Publisher interface {
	IsConnected() bool
	Publish(event string, payload []byte) bool
}

// Deps are the collaborators the engine drives. Modem and Detector are
// required; Antenna, Publisher, and Clock may be nil (passive antenna, no
// publishing, system time).
type Deps struct {
	Modem     Modem
	Detector  Detector
	Antenna   Antenna
	Publisher Publisher
	Clock     Clock
}

// Service coordinates acquisition attempts: it serializes concurrent
// callers into a single in-flight attempt handled by one long-lived worker
// goroutine, and delivers results synchronously or via callback.
type Service struct {
	cfg   Config
	modem Modem
	det   Detector
	ant   Antenna
	pub   Publisher
	clock Clock

	// commands is a capacity-1 handoff. A second request is rejected with
	// OutcomePending before ever reaching the command slot.
	commands chan request

	acquiring atomic.Bool
	seq       atomic.Uint32

	mu    sync.Mutex
	model Model

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type workerCommand int

const (
	cmdAcquire workerCommand = iota
	cmdExit
)

// request is one pending or in-flight attempt handed to the worker.
type request struct {
	cmd workerCommand

	point *Point
	// resp, when non-nil, receives the outcome of a blocking request. It
	// must have capacity 1 so an expired waiter never blocks the worker.
	// Otherwise done, if set, is called from the worker goroutine.
	resp    chan Outcome
	done    func(Outcome)
	publish bool
}

type nopAntenna struct{}

func (nopAntenna) Set(bool) error { return nil }

// New builds the engine, starts its worker goroutine, and, when the modem
// is already powered and supported, applies the constellation
// configuration immediately.
func New(cfg Config, deps Deps) *Service {
	if cfg.HDOPThreshold == 0 {
		cfg.HDOPThreshold = DefaultHDOPThreshold
	}
	if cfg.HDOPThreshold < 0 {
		cfg.HDOPThreshold = 0
	}
	if cfg.HDOPThreshold > 100 {
		cfg.HDOPThreshold = 100
	}
	if cfg.AccuracyThreshold == 0 {
		cfg.AccuracyThreshold = DefaultAccuracyThreshold
	}
	if cfg.MaxFixTime <= 0 {
		cfg.MaxFixTime = DefaultMaxFixTime
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if deps.Antenna == nil {
		deps.Antenna = nopAntenna{}
	}
	if deps.Clock == nil {
		deps.Clock = newSystemClock()
	}

	s := &Service{
		cfg:      cfg,
		modem:    deps.Modem,
		det:      deps.Detector,
		ant:      deps.Antenna,
		pub:      deps.Publisher,
		clock:    deps.Clock,
		commands: make(chan request, 1),
	}
	s.seq.Store(1)

	if s.modem.IsPowered() && s.ensureModel() {
		s.configureConstellation()
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Acquire runs one blocking acquisition into point. It returns
// OutcomeUnavailable when the modem is off, OutcomeUnsupported when the
// model is unknown or unsupported, and OutcomePending when an attempt is
// already in flight. On OutcomeFixed with publish set and connectivity
// present, the point is published before returning. A wait that outlives
// the maximum fix time plus one poll interval returns OutcomeIdle; the
// attempt still runs to its natural end.
func (s *Service) Acquire(point *Point, publish bool) Outcome {
	if out, ok := s.admit(); !ok {
		return out
	}

	log.Printf("location: starting synchronous acquisition")
	resp := make(chan Outcome, 1)
	s.commands <- request{cmd: cmdAcquire, point: point, resp: resp}

	out := s.waitResponse(resp, s.cfg.MaxFixTime+s.cfg.PollInterval)
	if publish && out == OutcomeFixed {
		s.publishPoint(point)
	}
	return out
}

// AcquireAsync starts one acquisition into point and returns
// OutcomeAcquiring immediately. Preconditions and rejections match
// Acquire. The callback fires exactly once from the worker goroutine with
// the final outcome; when publish is set, a fixed point is published
// before the callback.
func (s *Service) AcquireAsync(point *Point, done func(Outcome), publish bool) Outcome {
	if out, ok := s.admit(); !ok {
		return out
	}

	log.Printf("location: starting asynchronous acquisition")
	s.commands <- request{cmd: cmdAcquire, point: point, done: done, publish: publish}
	return OutcomeAcquiring
}

// Status reports OutcomeAcquiring while an attempt is in flight and
// OutcomeIdle otherwise. Safe to call concurrently with everything else.
func (s *Service) Status() Outcome {
	if s.acquiring.Load() {
		return OutcomeAcquiring
	}
	return OutcomeIdle
}

// Close stops the worker goroutine. A running attempt finishes first; its
// result is still delivered.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.commands <- request{cmd: cmdExit}
		s.wg.Wait()
	})
}

// admit checks the preconditions shared by both acquire paths and claims
// the single flight slot. The flag is claimed here, before dispatch, so a
// racing second caller can never queue behind the command slot.
func (s *Service) admit() (Outcome, bool) {
	if !s.modem.IsPowered() {
		log.Printf("location: modem is not on")
		return OutcomeUnavailable, false
	}
	if !s.ensureModel() {
		log.Printf("location: modem is not supported")
		return OutcomeUnsupported, false
	}
	if !s.acquiring.CompareAndSwap(false, true) {
		log.Printf("location: acquisition already underway")
		return OutcomePending, false
	}
	return OutcomeIdle, true
}

// ensureModel detects the modem model once and caches it. Returns whether
// acquisition is supported on the detected model.
func (s *Service) ensureModel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == ModelUnavailable {
		s.model = s.det.Detect()
		if s.model != ModelUnavailable {
			log.Printf("location: detected modem model %s", s.model)
		}
	}
	return s.model == ModelBG95M5
}

func (s *Service) currentModel() Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Service) waitResponse(resp <-chan Outcome, timeout time.Duration) Outcome {
	select {
	case out := <-resp:
		return out
	case <-s.clock.After(timeout):
		return OutcomeIdle
	}
}
