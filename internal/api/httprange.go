// httprange.go implements HTTP Range header parsing for the streaming
// endpoints.
package api

import (
	"strconv"
	"strings"

	"github.com/JAEarly/GardenEye/internal/errors"
)

// invalidRange builds the 416-mapped error for a rejected Range header.
func invalidRange(header, reason string) error {
	return errors.Newf("invalid range %q: %s", header, reason).
		Component("api").
		Category(errors.CategoryInvalidRange).
		Build()
}

// ParseRange parses a Range header into inclusive (start, end) byte
// positions for a file of the given size. Only the first comma-separated
// range of a single "bytes=" unit specifier is considered, in one of three
// forms: "start-end", "start-" (end defaults to fileSize-1) and "-suffix"
// (last suffix bytes, suffix > 0). A window extending past EOF is clamped
// to EOF rather than rejected.
func ParseRange(header string, fileSize int64) (start, end int64, err error) {
	unit, ranges, found := strings.Cut(header, "=")
	if !found {
		return 0, 0, invalidRange(header, "missing unit")
	}
	if strings.TrimSpace(unit) != "bytes" {
		return 0, 0, invalidRange(header, "only 'bytes' ranges are supported")
	}

	first, _, _ := strings.Cut(ranges, ",")
	first = strings.TrimSpace(first)

	if strings.HasPrefix(first, "-") {
		// Suffix range: last N bytes
		suffix, err := strconv.ParseInt(first[1:], 10, 64)
		if err != nil {
			return 0, 0, invalidRange(header, "malformed suffix")
		}
		if suffix <= 0 {
			return 0, 0, invalidRange(header, "suffix length must be positive")
		}
		start = max(fileSize-suffix, 0)
		end = fileSize - 1
		return start, end, nil
	}

	parts := strings.Split(first, "-")
	if len(parts) != 2 {
		return 0, 0, invalidRange(header, "expected exactly one '-'")
	}
	start = 0
	if parts[0] != "" {
		start, err = strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, 0, invalidRange(header, "malformed start")
		}
	}
	end = fileSize - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, invalidRange(header, "malformed end")
		}
	}

	if start > end || start < 0 {
		return 0, 0, invalidRange(header, "invalid bounds")
	}
	end = min(end, fileSize-1)
	return start, end, nil
}
