package location

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

type locPayload struct {
	Cmd  string `json:"cmd"`
	Time *int64 `json:"time"`
	Loc  struct {
		Lck  int      `json:"lck"`
		Time *int64   `json:"time"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
		Alt  *float64 `json:"alt"`
		Hd   *float64 `json:"hd"`
		Spd  *float64 `json:"spd"`
		Hdop *float64 `json:"hdop"`
		HAcc *float64 `json:"h_acc"`
		VAcc *float64 `json:"v_acc"`
		Nsat *int     `json:"nsat"`
		Ttff *float64 `json:"ttff"`
	} `json:"loc"`
	ReqID uint32 `json:"req_id"`
}

func fixedPoint() *Point {
	return &Point{
		Fix:                3,
		EpochTime:          time.Date(2024, time.March, 11, 16, 12, 29, 0, time.UTC),
		SystemTime:         time.Unix(1710173550, 0),
		Latitude:           37.42251071,
		Longitude:          -122.08423004,
		Altitude:           31.525,
		Speed:              3.0,
		Heading:            21.5,
		HorizontalAccuracy: 5.125,
		HorizontalDop:      1.2,
		VerticalAccuracy:   8.25,
		TimeToFirstFix:     12.3,
		SatsInUse:          6,
	}
}

func TestBuildPayload_RoundTrip(t *testing.T) {
	p := fixedPoint()
	raw, err := buildPayload(p, 7)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}

	var got locPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v\n%s", err, raw)
	}
	if got.Cmd != "loc" || got.ReqID != 7 {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Time == nil || *got.Time != p.SystemTime.Unix() {
		t.Fatalf("missing or wrong system time")
	}
	if got.Loc.Lck != 1 {
		t.Fatalf("lck = %d, want 1", got.Loc.Lck)
	}
	if got.Loc.Time == nil || *got.Loc.Time != p.EpochTime.Unix() {
		t.Fatalf("missing or wrong epoch time")
	}

	// Each numeric field must round-trip within its stated precision.
	within := func(name string, got *float64, want float64, prec int) {
		t.Helper()
		if got == nil {
			t.Fatalf("missing field %s", name)
		}
		tol := 0.5 * math.Pow10(-prec)
		if math.Abs(*got-want) > tol {
			t.Fatalf("%s = %v, want %v within %v", name, *got, want, tol)
		}
	}
	within("lat", got.Loc.Lat, p.Latitude, 8)
	within("lon", got.Loc.Lon, p.Longitude, 8)
	within("alt", got.Loc.Alt, p.Altitude, 3)
	within("hd", got.Loc.Hd, p.Heading, 2)
	within("spd", got.Loc.Spd, p.Speed, 2)
	within("hdop", got.Loc.Hdop, p.HorizontalDop, 1)
	within("h_acc", got.Loc.HAcc, p.HorizontalAccuracy, 3)
	within("v_acc", got.Loc.VAcc, p.VerticalAccuracy, 3)
	within("ttff", got.Loc.Ttff, p.TimeToFirstFix, 1)
	if got.Loc.Nsat == nil || *got.Loc.Nsat != 6 {
		t.Fatalf("nsat missing or wrong")
	}
}

func TestBuildPayload_Unlocked(t *testing.T) {
	raw, err := buildPayload(&Point{}, 1)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	var got locPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("payload decode: %v\n%s", err, raw)
	}
	if got.Loc.Lck != 0 {
		t.Fatalf("lck = %d, want 0", got.Loc.Lck)
	}
	if got.Time != nil || got.Loc.Lat != nil || got.Loc.Ttff != nil {
		t.Fatalf("unlocked payload must carry only the lock flag: %s", raw)
	}
}

func TestBuildPayload_OmitsNonPositiveAccuracy(t *testing.T) {
	p := fixedPoint()
	p.HorizontalAccuracy = 0
	p.VerticalAccuracy = 0
	raw, err := buildPayload(p, 1)
	if err != nil {
		t.Fatalf("buildPayload: %v", err)
	}
	if strings.Contains(string(raw), "h_acc") || strings.Contains(string(raw), "v_acc") {
		t.Fatalf("zero accuracies must be omitted: %s", raw)
	}
}

func TestBuildPayload_SizeBound(t *testing.T) {
	p := fixedPoint()
	// Absurd magnitudes blow past the payload bound in 'f' formatting.
	p.Latitude = 1e308
	p.Longitude = -1e308
	p.Altitude = 1e308
	p.Speed = 1e308
	if _, err := buildPayload(p, 1); err == nil {
		t.Fatalf("expected size-bound error")
	}
}
