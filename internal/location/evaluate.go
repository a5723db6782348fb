package location

// settlingCount is the number of consecutive good decodes required before
// a fix is trusted as stable.
const settlingCount = 2

// evaluator decides, across repeated samples within one attempt, whether
// the attempt is done. One instance per attempt.
//
// A missed sample does not reset fixCount; a single bad poll should not
// restart settling.
type evaluator struct {
	clock Clock

	hdopLimit float64
	haccLimit float64
	maxFixMs  uint64

	startMs    uint64
	fixCount   int
	firstFixMs uint64
	haveFix    bool
}

func newEvaluator(clock Clock, cfg Config) *evaluator {
	return &evaluator{
		clock:     clock,
		hdopLimit: float64(cfg.HDOPThreshold),
		haccLimit: cfg.AccuracyThreshold,
		maxFixMs:  uint64(cfg.MaxFixTime.Milliseconds()),
		startMs:   clock.Millis(),
	}
}

// observe records the result of one position poll. The first successful
// decode stamps the point's system time and pins the first-fix instant.
func (e *evaluator) observe(f Fault, p *Point) {
	if f != FaultFix {
		return
	}
	e.fixCount++
	if !e.haveFix {
		e.haveFix = true
		e.firstFixMs = e.clock.Millis()
		p.SystemTime = e.clock.Now()
	}
}

// settled reports whether this cycle's sample completes the attempt. Both
// threshold comparisons are inclusive and run against the same-cycle
// position sample, after any accuracy merge.
func (e *evaluator) settled(f Fault, p *Point) bool {
	return f == FaultFix &&
		e.fixCount >= settlingCount &&
		p.HorizontalDop <= e.hdopLimit &&
		p.HorizontalAccuracy <= e.haccLimit
}

// expired reports whether the attempt has used up its maximum fix time.
func (e *evaluator) expired() bool {
	return e.clock.Millis()-e.startMs >= e.maxFixMs
}

// finish stores time-to-first-fix on the point if a fix was ever decoded.
func (e *evaluator) finish(p *Point) {
	if e.haveFix {
		p.TimeToFirstFix = float64(e.firstFixMs-e.startMs) / 1000.0
	}
}
