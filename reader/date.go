package reader

import (
	"strconv"
	"strings"
	"time"

	"github.com/prismmonkey/jsontext/token"
)

// tryParseDateToken recognizes the /Date(<ms>[±HHMM])/ string form and
// upgrades it to a Date token. Content that merely looks like the form but
// does not parse stays a plain string.
func (r *Reader) tryParseDateToken(s string, quote byte) (token.Token, bool) {
	if !strings.HasPrefix(s, "/Date(") || !strings.HasSuffix(s, ")/") {
		return token.Token{}, false
	}
	value := s[len("/Date(") : len(s)-len(")/")]

	// the offset sign is never at index 0; that position belongs to a
	// negative millisecond count
	sep := -1
	for i := 1; i < len(value); i++ {
		if value[i] == '+' || value[i] == '-' {
			sep = i
			break
		}
	}
	msText, offsetText := value, ""
	if sep >= 0 {
		msText, offsetText = value[:sep], value[sep:]
	}

	ms, err := strconv.ParseInt(msText, 10, 64)
	if err != nil {
		return token.Token{}, false
	}
	utc := time.UnixMilli(ms).UTC()

	var zone *time.Location
	if offsetText != "" {
		seconds, ok := parseDateOffset(offsetText)
		if !ok {
			return token.Token{}, false
		}
		zone = time.FixedZone("", seconds)
	}

	var t time.Time
	switch {
	case r.readMode == readTypeReadAsDateTimeOffset && zone != nil:
		t = utc.In(zone)
	case r.readMode == readTypeReadAsDateTimeOffset:
		t = utc
	case zone != nil:
		// without an offset-aware read the instant is presented as local
		// wall-clock time
		t = utc.In(time.Local)
	default:
		t = utc
	}
	return token.Token{Type: token.Date, Time: t, Quote: quote}, true
}

// parseDateOffset converts ±HHMM (minutes optional when the suffix is
// shorter than five characters) to seconds east of UTC.
func parseDateOffset(s string) (int, bool) {
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := s[1:]
	if digits == "" {
		return 0, false
	}
	var hours, minutes int
	var err error
	if len(s) >= 5 {
		hours, err = strconv.Atoi(digits[:2])
		if err != nil {
			return 0, false
		}
		minutes, err = strconv.Atoi(digits[2:4])
		if err != nil {
			return 0, false
		}
	} else {
		hours, err = strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
	}
	return sign * (hours*3600 + minutes*60), true
}
