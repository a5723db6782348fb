package modem

import (
	"strings"

	"cellloc/internal/location"
)

// Detect reads the modem identification (ATI) and maps it to a known
// model. A transport failure means the modem is off or not up yet, which
// is distinct from an answered-but-unrecognized identification.
func (t *Transport) Detect() location.Model {
	var lines []string
	err := t.commandLines("ATI", detectTimeout, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return location.ModelUnavailable
	}
	for _, line := range lines {
		switch {
		case strings.Contains(line, "BG95-M5"):
			return location.ModelBG95M5
		case strings.Contains(line, "EG91"):
			return location.ModelEG91
		}
	}
	return location.ModelUnsupported
}
