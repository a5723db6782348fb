// Package modem drives a cellular modem's AT-command interface over a
// serial port. It assumes no-echo mode (ATE0 is applied at open) and
// classifies reply lines into data lines ("+..." payloads) and final
// result codes.
package modem

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaud = 115200

	defaultCommandTimeout = 1 * time.Second
	pingTimeout           = 300 * time.Millisecond
	detectTimeout         = 2 * time.Second

	// maxReplyLen bounds one reply line; longer lines are a hard error,
	// never silently truncated.
	maxReplyLen = 256

	readChunk = 100 * time.Millisecond
)

// Final result codes and error prefixes of the AT protocol.
const (
	respOK        = "OK"
	respError     = "ERROR"
	respNoCarrier = "NO CARRIER"
	cmePrefix     = "+CME ERROR:"
	cmsPrefix     = "+CMS ERROR:"
)

var errTimeout = errors.New("modem: command timed out")

// wire is the byte stream beneath the transport. serial.Port satisfies it;
// tests substitute a scripted fake.
type wire interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
	Close() error
}

type Config struct {
	Device string
	Baud   int
}

// Transport serializes AT command/response exchanges over one port. All
// access goes through a mutex; a command owns the wire until its final
// result code or deadline.
type Transport struct {
	mu      sync.Mutex
	w       wire
	pending []byte
}

// Open opens the serial device and switches the modem to no-echo mode.
func Open(cfg Config) (*Transport, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("modem: device is required")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("modem: open %s: %w", cfg.Device, err)
	}
	log.Printf("modem: opened %s baud=%d", cfg.Device, baud)

	t := newTransport(port)
	if _, err := t.CommandTimeout("ATE0", pingTimeout); err != nil {
		// The modem may still be booting; commands fail soft until it is up.
		log.Printf("modem: echo off: %v", err)
	}
	return t, nil
}

func newTransport(w wire) *Transport {
	return &Transport{w: w}
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Close()
}

// Command issues cmd with the default reply timeout.
func (t *Transport) Command(cmd string) (string, error) {
	return t.CommandTimeout(cmd, defaultCommandTimeout)
}

// CommandTimeout issues cmd and returns the last data line of the reply
// (CR/LF stripped, possibly empty) once a final result code arrives. CME
// and CMS error lines are final and are returned as the data line so
// callers can decode the fault code.
func (t *Transport) CommandTimeout(cmd string, timeout time.Duration) (string, error) {
	var data string
	err := t.commandLines(cmd, timeout, func(line string) {
		if strings.HasPrefix(line, "+") {
			data = line
		}
	})
	return data, err
}

// IsPowered probes the modem with a bare AT command.
func (t *Transport) IsPowered() bool {
	_, err := t.CommandTimeout("AT", pingTimeout)
	return err == nil
}

// commandLines issues cmd and feeds every non-empty reply line to each
// until a final result code or the deadline. The reply handler sees the
// final +CME/+CMS line too, since it carries the fault code.
func (t *Transport) commandLines(cmd string, timeout time.Duration, each func(line string)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Drop any stale unsolicited bytes from before this command.
	t.pending = nil

	if _, err := t.w.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("modem: write %q: %w", cmd, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		raw, err := t.nextLine(deadline)
		if err != nil {
			return err
		}
		line := strings.TrimSpace(raw)
		if line == "" || line == cmd {
			continue
		}
		if isFinal(line) {
			if each != nil && strings.HasPrefix(line, "+") {
				each(line)
			}
			return nil
		}
		if each != nil {
			each(line)
		}
	}
}

func isFinal(line string) bool {
	return line == respOK || line == respError || line == respNoCarrier ||
		strings.HasPrefix(line, cmePrefix) || strings.HasPrefix(line, cmsPrefix)
}

// nextLine returns the next CR/LF-delimited line from the wire, which may
// be empty. The returned line carries no CR/LF bytes.
func (t *Transport) nextLine(deadline time.Time) (string, error) {
	for {
		if i := strings.IndexAny(string(t.pending), "\r\n"); i >= 0 {
			line := string(t.pending[:i])
			t.pending = t.pending[i+1:]
			return line, nil
		}
		if len(t.pending) > maxReplyLen {
			t.pending = nil
			return "", fmt.Errorf("modem: reply line exceeds %d bytes", maxReplyLen)
		}

		remain := time.Until(deadline)
		if remain <= 0 {
			return "", errTimeout
		}
		if remain > readChunk {
			remain = readChunk
		}
		_ = t.w.SetReadTimeout(remain)

		buf := make([]byte, 128)
		n, err := t.w.Read(buf)
		if err != nil {
			return "", fmt.Errorf("modem: read: %w", err)
		}
		// n == 0 means the read timed out; loop back to the deadline check.
		t.pending = append(t.pending, buf[:n]...)
	}
}
