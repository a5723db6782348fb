package location

import (
	"fmt"
	"strings"
	"time"
)

// The modem reports position via +QGPSLOC and accuracy estimates via
// +QGPSCFG "estimation_error". Both arrive as single reply lines; errors
// arrive as +CME ERROR lines instead. All parse functions expect input with
// CR/LF already removed (the transport strips per line; stripCRLF covers
// raw callers).

// fixSample is the transient decode of one +QGPSLOC reply. It lives for
// one parse call and is folded into a Point on success.
type fixSample struct {
	hour, min, sec, centis int
	latitude, longitude    float64
	hdop, altitude         float64
	fix                    int
	cogDegrees, cogMinutes int
	speedKmh, speedKnots   float64
	day, month, year       int
	nsat                   int
}

// accuracySample is the transient decode of one estimation_error reply.
type accuracySample struct {
	hAcc, vAcc, speedAcc, headAcc float64
}

// stripCRLF removes all carriage-return and line-feed bytes, preserving
// every other byte.
func stripCRLF(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != '\r' && c != '\n' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// parseFault scans a reply for a device-reported +CME ERROR code. Absence
// of the pattern is FaultNone, meaning the reply is a normal data line.
// Codes outside the known GNSS set map to FaultUndefined.
func parseFault(s string) Fault {
	i := strings.Index(s, "+CME ERROR:")
	if i < 0 {
		return FaultNone
	}
	var code int
	if _, err := fmt.Sscanf(s[i:], "+CME ERROR: %d", &code); err != nil {
		return FaultNone
	}
	switch Fault(code) {
	case FaultSessionOngoing, FaultSessionNotActive, FaultOperationTimeout,
		FaultNoFix, FaultGNSSWorking, FaultUnknownError:
		return Fault(code)
	}
	return FaultUndefined
}

// parseFixSample decodes the fixed-field +QGPSLOC=2 reply:
//
//	+QGPSLOC: <UTC hhmmss.hh>,<lat (-)dd.ddddd>,<lon (-)ddd.ddddd>,<HDOP>,
//	          <altitude>,<fix>,<COG ddd.mm>,<spkm>,<spkn>,<date ddmmyy>,<nsat>
//
// The decode is all-or-nothing: any field-count mismatch yields ok=false
// and the zero sample.
func parseFixSample(s string) (fixSample, bool) {
	var smp fixSample
	n, err := fmt.Sscanf(strings.TrimSpace(s),
		"+QGPSLOC: %2d%2d%2d.%d,%f,%f,%f,%f,%d,%3d.%2d,%f,%f,%2d%2d%2d,%d",
		&smp.hour, &smp.min, &smp.sec, &smp.centis,
		&smp.latitude, &smp.longitude, &smp.hdop, &smp.altitude,
		&smp.fix, &smp.cogDegrees, &smp.cogMinutes,
		&smp.speedKmh, &smp.speedKnots,
		&smp.day, &smp.month, &smp.year,
		&smp.nsat)
	if err != nil || n != 17 {
		return fixSample{}, false
	}
	return smp, true
}

// kmhToMs converts the modem's km/h speed field to meters per second. The
// stored unit matches Point.Speed's declared unit.
const kmhToMs = 1000.0 / 3600.0

// applyFixSample folds a decoded sample into the point. The two-digit year
// is offset from 2000; course-over-ground arrives as whole degrees plus
// arc minutes.
func applyFixSample(smp fixSample, p *Point) {
	p.EpochTime = time.Date(2000+smp.year, time.Month(smp.month), smp.day,
		smp.hour, smp.min, smp.sec, 0, time.UTC)
	p.Fix = smp.fix
	p.Latitude = smp.latitude
	p.Longitude = smp.longitude
	p.Altitude = smp.altitude
	p.Speed = smp.speedKmh * kmhToMs
	p.Heading = float64(smp.cogDegrees) + float64(smp.cogMinutes)/60.0
	p.HorizontalDop = smp.hdop
	p.SatsInUse = smp.nsat
}

// parseFixReply decodes one position reply into the point.
//
// FaultNoFix clears the point's fix flag and is surfaced so the evaluator
// keeps polling. Any other reported fault is treated as "module not
// initialized yet" and mapped to FaultNone. A clean reply that decodes
// returns FaultFix; one that does not decode returns FaultNone, leaving
// the point untouched.
func parseFixReply(s string, p *Point) Fault {
	switch f := parseFault(s); {
	case f == FaultNoFix:
		p.Fix = 0
		return FaultNoFix
	case f != FaultNone:
		return FaultNone
	}
	if smp, ok := parseFixSample(s); ok {
		applyFixSample(smp, p)
		return FaultFix
	}
	return FaultNone
}

// parseAccuracyReply decodes an estimation_error reply into the point.
// Any reported fault makes this a no-op. Speed and heading accuracy are
// decoded but not surfaced on the point.
func parseAccuracyReply(s string, p *Point) {
	if parseFault(s) != FaultNone {
		return
	}
	var smp accuracySample
	n, err := fmt.Sscanf(strings.TrimSpace(s),
		"+QGPSCFG: \"estimation_error\",%f,%f,%f,%f",
		&smp.hAcc, &smp.vAcc, &smp.speedAcc, &smp.headAcc)
	if err != nil || n != 4 {
		return
	}
	p.HorizontalAccuracy = smp.hAcc
	p.VerticalAccuracy = smp.vAcc
}
