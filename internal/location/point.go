package location

import "time"

// Point is the result of one acquisition attempt. The caller creates it
// empty and hands it to the service; the worker fills it in place across
// repeated polls. Fields are only guaranteed complete and consistent once
// the attempt finishes with OutcomeFixed.
type Point struct {
	// Fix is the GNSS lock indicator as reported by the modem (0 = no lock).
	Fix int
	// EpochTime is the UTC time of the fix from the GNSS solution.
	EpochTime time.Time
	// SystemTime is the local wall-clock time stamped at the first fix.
	SystemTime time.Time

	Latitude  float64 // degrees
	Longitude float64 // degrees
	Altitude  float64 // meters
	Speed     float64 // meters per second
	Heading   float64 // degrees

	HorizontalAccuracy float64 // meters
	HorizontalDop      float64
	VerticalAccuracy   float64 // meters
	VerticalDop        float64

	TimeToFirstFix float64 // seconds
	SatsInUse      int
}

// Outcome is both the worker's attempt result and the externally visible
// acquisition status.
type Outcome int

const (
	// OutcomeUnavailable means GNSS is not available, typically because the
	// modem is off.
	OutcomeUnavailable Outcome = iota
	// OutcomeUnsupported means the detected modem model has no GNSS support
	// in this engine.
	OutcomeUnsupported
	// OutcomeIdle means no acquisition is pending or in progress.
	OutcomeIdle
	// OutcomeAcquiring means an acquisition is in progress.
	OutcomeAcquiring
	// OutcomePending means a previous acquisition is still in progress and
	// the new request was rejected.
	OutcomePending
	// OutcomeFixed means a position was acquired and passed the quality
	// thresholds.
	OutcomeFixed
	// OutcomeTimedOut means the attempt ended without a stable fix.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeIdle:
		return "idle"
	case OutcomeAcquiring:
		return "acquiring"
	case OutcomePending:
		return "pending"
	case OutcomeFixed:
		return "fixed"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Fault is a device-reported CME error decoded from a modem reply. Values
// match the numeric codes the Quectel GNSS engine emits.
type Fault int

const (
	FaultNone             Fault = 0
	FaultFix              Fault = 1   // position decoded successfully
	FaultSessionOngoing   Fault = 504 // session is ongoing
	FaultSessionNotActive Fault = 505 // session not active
	FaultOperationTimeout Fault = 506 // operational timeout
	FaultNoFix            Fault = 516 // no fix yet
	FaultGNSSWorking      Fault = 522 // GNSS is working
	FaultUnknownError     Fault = 549 // device-side unknown error
	FaultUndefined        Fault = 999 // unrecognized CME code
)

// Model identifies the cellular modem variant behind the AT interface.
type Model int

const (
	// ModelUnavailable means the model has not been read yet, likely because
	// the modem is off.
	ModelUnavailable Model = iota
	// ModelUnsupported means the model was read but GNSS acquisition is not
	// supported on it.
	ModelUnsupported
	ModelBG95M5
	// ModelEG91 is detected but not supported for acquisition.
	ModelEG91
)

func (m Model) String() string {
	switch m {
	case ModelBG95M5:
		return "BG95-M5"
	case ModelEG91:
		return "EG91"
	case ModelUnsupported:
		return "unsupported"
	default:
		return "unavailable"
	}
}

// Constellation selects which GNSS constellations the modem should use,
// as a bitmap. GPS is always included.
type Constellation int

const (
	// ConstellationDefault is the zero value and selects GPS+GLONASS.
	ConstellationDefault    Constellation = 0
	ConstellationGPSOnly    Constellation = 1 << 0
	ConstellationGPSGlonass Constellation = 1 << 1
	ConstellationGPSBeidou  Constellation = 1 << 2
	ConstellationGPSGalileo Constellation = 1 << 3
	ConstellationGPSQZSS    Constellation = 1 << 4
)

// gnssConfigNumber maps the constellation bitmap to the modem's
// "gnssconfig" selector. GPS-only has no selector of its own on this
// engine; it shares 1 with GPS+GLONASS, which is also the fallback.
func gnssConfigNumber(c Constellation) int {
	switch {
	case c == ConstellationDefault || c&(ConstellationGPSOnly|ConstellationGPSGlonass) != 0:
		return 1
	case c&ConstellationGPSBeidou != 0:
		return 2
	case c&ConstellationGPSGalileo != 0:
		return 3
	case c&ConstellationGPSQZSS != 0:
		return 4
	default:
		return 1
	}
}
