package location

import (
	"math"
	"testing"
	"time"
)

const locReply = "+QGPSLOC: 161229.00,37.42251,-122.08423,1.0,31.5,3,021.30,10.8,5.8,110324,06"

func TestParseFault_KnownCodes(t *testing.T) {
	cases := []struct {
		in   string
		want Fault
	}{
		{"+CME ERROR: 504", FaultSessionOngoing},
		{"+CME ERROR: 505", FaultSessionNotActive},
		{"+CME ERROR: 506", FaultOperationTimeout},
		{"+CME ERROR: 516", FaultNoFix},
		{"+CME ERROR: 522", FaultGNSSWorking},
		{"+CME ERROR: 549", FaultUnknownError},
	}
	for _, c := range cases {
		if got := parseFault(c.in); got != c.want {
			t.Fatalf("parseFault(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseFault_UnknownCode(t *testing.T) {
	if got := parseFault("+CME ERROR: 123"); got != FaultUndefined {
		t.Fatalf("expected undefined fault, got %d", got)
	}
}

func TestParseFault_NoPattern(t *testing.T) {
	if got := parseFault(locReply); got != FaultNone {
		t.Fatalf("expected no fault on data line, got %d", got)
	}
	if got := parseFault(""); got != FaultNone {
		t.Fatalf("expected no fault on empty line, got %d", got)
	}
}

func TestParseFixSample_WellFormed(t *testing.T) {
	smp, ok := parseFixSample(locReply)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if smp.hour != 16 || smp.min != 12 || smp.sec != 29 {
		t.Fatalf("unexpected time fields: %02d:%02d:%02d", smp.hour, smp.min, smp.sec)
	}
	if smp.day != 11 || smp.month != 3 || smp.year != 24 {
		t.Fatalf("unexpected date fields: %02d/%02d/%02d", smp.day, smp.month, smp.year)
	}
	if math.Abs(smp.latitude-37.42251) > 1e-9 || math.Abs(smp.longitude+122.08423) > 1e-9 {
		t.Fatalf("unexpected lat/lon: %f,%f", smp.latitude, smp.longitude)
	}
	if smp.fix != 3 || smp.nsat != 6 {
		t.Fatalf("unexpected fix=%d nsat=%d", smp.fix, smp.nsat)
	}
	if smp.cogDegrees != 21 || smp.cogMinutes != 30 {
		t.Fatalf("unexpected cog %d.%d", smp.cogDegrees, smp.cogMinutes)
	}
	if math.Abs(smp.hdop-1.0) > 1e-9 || math.Abs(smp.altitude-31.5) > 1e-9 {
		t.Fatalf("unexpected hdop=%f alt=%f", smp.hdop, smp.altitude)
	}
	if math.Abs(smp.speedKmh-10.8) > 1e-6 || math.Abs(smp.speedKnots-5.8) > 1e-6 {
		t.Fatalf("unexpected speeds %f/%f", smp.speedKmh, smp.speedKnots)
	}
}

func TestParseFixSample_WrongFieldCount(t *testing.T) {
	malformed := []string{
		"+QGPSLOC: 161229.00,37.42251,-122.08423",
		"+QGPSLOC: 161229.00,37.42251,-122.08423,1.0,31.5,3,021.30,10.8,5.8,110324",
		"+QGPSLOC:",
		"garbage",
		"",
	}
	for _, in := range malformed {
		if _, ok := parseFixSample(in); ok {
			t.Fatalf("expected parse failure for %q", in)
		}
	}
}

func TestApplyFixSample_EpochTime(t *testing.T) {
	smp, ok := parseFixSample(locReply)
	if !ok {
		t.Fatalf("parse failed")
	}
	var p Point
	applyFixSample(smp, &p)
	want := time.Date(2024, time.March, 11, 16, 12, 29, 0, time.UTC)
	if !p.EpochTime.Equal(want) {
		t.Fatalf("epoch = %v, want %v", p.EpochTime, want)
	}
}

func TestApplyFixSample_HeadingMinutes(t *testing.T) {
	for minutes := 0; minutes < 60; minutes++ {
		smp := fixSample{cogDegrees: 123, cogMinutes: minutes}
		var p Point
		applyFixSample(smp, &p)
		want := 123.0 + float64(minutes)/60.0
		if math.Abs(p.Heading-want) > 1e-9 {
			t.Fatalf("heading for %d minutes = %f, want %f", minutes, p.Heading, want)
		}
	}
}

func TestApplyFixSample_SpeedKmhToMs(t *testing.T) {
	smp := fixSample{speedKmh: 36.0}
	var p Point
	applyFixSample(smp, &p)
	if math.Abs(p.Speed-10.0) > 1e-9 {
		t.Fatalf("36 km/h = %f m/s, want 10", p.Speed)
	}
}

func TestParseFixReply_NoFixClearsFlag(t *testing.T) {
	p := Point{Fix: 3}
	if got := parseFixReply("+CME ERROR: 516", &p); got != FaultNoFix {
		t.Fatalf("expected no-fix fault, got %d", got)
	}
	if p.Fix != 0 {
		t.Fatalf("expected fix flag cleared")
	}
}

func TestParseFixReply_OtherFaultIsNotAnError(t *testing.T) {
	p := Point{Latitude: 1.0}
	if got := parseFixReply("+CME ERROR: 504", &p); got != FaultNone {
		t.Fatalf("expected none for session-ongoing, got %d", got)
	}
	if p.Latitude != 1.0 {
		t.Fatalf("point must not be touched")
	}
}

func TestParseFixReply_MalformedLeavesPointUntouched(t *testing.T) {
	p := Point{Latitude: 1.0, Fix: 3}
	if got := parseFixReply("+QGPSLOC: bogus", &p); got != FaultNone {
		t.Fatalf("expected none for malformed reply, got %d", got)
	}
	if p.Latitude != 1.0 || p.Fix != 3 {
		t.Fatalf("point must not be touched on parse failure")
	}
}

func TestParseFixReply_GoodReply(t *testing.T) {
	var p Point
	if got := parseFixReply(locReply, &p); got != FaultFix {
		t.Fatalf("expected fix, got %d", got)
	}
	if p.Fix != 3 || p.SatsInUse != 6 {
		t.Fatalf("point not populated: %+v", p)
	}
}

func TestParseAccuracyReply(t *testing.T) {
	var p Point
	parseAccuracyReply(`+QGPSCFG: "estimation_error",5.125,8.250,0.5,0.8`, &p)
	if math.Abs(p.HorizontalAccuracy-5.125) > 1e-9 {
		t.Fatalf("h_acc = %f", p.HorizontalAccuracy)
	}
	if math.Abs(p.VerticalAccuracy-8.25) > 1e-9 {
		t.Fatalf("v_acc = %f", p.VerticalAccuracy)
	}
}

func TestParseAccuracyReply_FaultIsNoop(t *testing.T) {
	p := Point{HorizontalAccuracy: 1.0}
	parseAccuracyReply("+CME ERROR: 505", &p)
	if p.HorizontalAccuracy != 1.0 {
		t.Fatalf("accuracy must not change on fault")
	}
}

func TestStripCRLF(t *testing.T) {
	in := "\r\n+QGPSLOC: 161229.00,1.0\r\n"
	if got := stripCRLF(in); got != "+QGPSLOC: 161229.00,1.0" {
		t.Fatalf("stripCRLF = %q", got)
	}
	if got := stripCRLF("plain"); got != "plain" {
		t.Fatalf("stripCRLF must preserve other bytes, got %q", got)
	}
}
