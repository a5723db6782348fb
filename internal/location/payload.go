package location

import (
	"fmt"
	"strconv"
)

// maxPayloadSize bounds the serialized loc event. Exceeding it is an
// explicit error, never a truncation.
const maxPayloadSize = 1024

// payloadBuilder writes a JSON object with fixed decimal precision per
// field. encoding/json cannot express per-field precision, and the
// precisions here are a wire contract.
type payloadBuilder struct {
	buf  []byte
	need []bool // needs-comma flag per nesting depth
}

func (b *payloadBuilder) open() {
	b.buf = append(b.buf, '{')
	b.need = append(b.need, false)
}

func (b *payloadBuilder) close() {
	b.buf = append(b.buf, '}')
	b.need = b.need[:len(b.need)-1]
}

// key emits the member separator and the name. Names are fixed protocol
// strings and need no escaping.
func (b *payloadBuilder) key(name string) {
	if n := len(b.need); n > 0 {
		if b.need[n-1] {
			b.buf = append(b.buf, ',')
		}
		b.need[n-1] = true
	}
	b.buf = append(b.buf, '"')
	b.buf = append(b.buf, name...)
	b.buf = append(b.buf, '"', ':')
}

func (b *payloadBuilder) str(name, v string) {
	b.key(name)
	b.buf = append(b.buf, '"')
	b.buf = append(b.buf, v...)
	b.buf = append(b.buf, '"')
}

func (b *payloadBuilder) integer(name string, v int64) {
	b.key(name)
	b.buf = strconv.AppendInt(b.buf, v, 10)
}

func (b *payloadBuilder) float(name string, v float64, prec int) {
	b.key(name)
	b.buf = strconv.AppendFloat(b.buf, v, 'f', prec, 64)
}

func (b *payloadBuilder) object(name string) {
	b.key(name)
	b.open()
}

// buildPayload serializes the loc event:
//
//	{"cmd":"loc","time":<sys>,"loc":{...},"req_id":<seq>}
//
// An unlocked point emits only the lock flag inside "loc"; a locked point
// emits the full fix with the contracted precisions (lat/lon 8, alt 3,
// heading 2, speed 2, hdop 1, accuracies 3, ttff 1). Accuracy fields are
// emitted only when positive, time fields only when set.
func buildPayload(p *Point, seq uint32) ([]byte, error) {
	var b payloadBuilder
	b.open()
	b.str("cmd", "loc")
	if !p.SystemTime.IsZero() {
		b.integer("time", p.SystemTime.Unix())
	}
	b.object("loc")
	if p.Fix == 0 {
		b.integer("lck", 0)
	} else {
		b.integer("lck", 1)
		b.integer("time", p.EpochTime.Unix())
		b.float("lat", p.Latitude, 8)
		b.float("lon", p.Longitude, 8)
		b.float("alt", p.Altitude, 3)
		b.float("hd", p.Heading, 2)
		b.float("spd", p.Speed, 2)
		b.float("hdop", p.HorizontalDop, 1)
		if p.HorizontalAccuracy > 0 {
			b.float("h_acc", p.HorizontalAccuracy, 3)
		}
		if p.VerticalAccuracy > 0 {
			b.float("v_acc", p.VerticalAccuracy, 3)
		}
		b.integer("nsat", int64(p.SatsInUse))
		b.float("ttff", p.TimeToFirstFix, 1)
	}
	b.close()
	b.integer("req_id", int64(seq))
	b.close()

	if len(b.buf) > maxPayloadSize {
		return nil, fmt.Errorf("location: loc payload %d bytes exceeds %d", len(b.buf), maxPayloadSize)
	}
	return b.buf, nil
}
