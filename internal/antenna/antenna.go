// Package antenna controls power to an active GNSS antenna through a GPIO
// line.
package antenna

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// Power switches the antenna supply. Implementations must leave the line
// low when closed.
type Power interface {
	Set(on bool) error
	Close() error
}

// Nop is the passive-antenna implementation.
type Nop struct{}

func (Nop) Set(bool) error { return nil }
func (Nop) Close() error   { return nil }

type linePower struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Open requests the line named GPIO<pin> as a digital output using the
// Linux GPIO character device. Likely chips are tried first; the rest of
// /dev is scanned as a fallback since kernel variants move header GPIOs
// between chips.
func Open(pin int) (Power, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("antenna: invalid gpio pin %d", pin)
	}
	lineName := fmt.Sprintf("GPIO%d", pin)

	candidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			candidates = append(candidates, filepath.Join("/dev", e.Name()))
		}
	}

	for _, chipPath := range candidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("cellloc-ant"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &linePower{chip: chip, line: line}, nil
	}
	return nil, fmt.Errorf("antenna: gpio line %q not found (or busy)", lineName)
}

func (p *linePower) Set(on bool) error {
	if p == nil || p.line == nil {
		return fmt.Errorf("antenna: line not initialized")
	}
	v := 0
	if on {
		v = 1
	}
	return p.line.SetValue(v)
}

// Close powers the antenna down and releases the line.
func (p *linePower) Close() error {
	if p == nil || p.line == nil {
		return nil
	}
	_ = p.line.SetValue(0)
	err := p.line.Close()
	p.line = nil
	if p.chip != nil {
		_ = p.chip.Close()
		p.chip = nil
	}
	return err
}
