package device

import (
	"bytes"
	"strings"

	"github.com/aretw0/cutline/pkg/domain"
)

// FaultDetector inspects bytes read back from the device and returns an
// error when they report a fault.
type FaultDetector func(data []byte) error

// LineFaults reports a ProtocolViolation for any line that starts with one
// of prefixes, compared case-insensitively.
func LineFaults(prefixes ...string) FaultDetector {
	lower := make([]string, len(prefixes))
	for i, p := range prefixes {
		lower[i] = strings.ToLower(p)
	}
	return func(data []byte) error {
		for _, raw := range bytes.Split(data, []byte{'\n'}) {
			line := strings.TrimSpace(string(raw))
			l := strings.ToLower(line)
			for _, p := range lower {
				if strings.HasPrefix(l, p) {
					return domain.NewError(domain.KindProtocol, "read", "device reported a fault", line)
				}
			}
		}
		return nil
	}
}

// StatusFaults matches the "error:<n>" and "ALARM:<n>" replies of
// line-acknowledged controllers.
var StatusFaults = LineFaults("error:", "alarm:")
