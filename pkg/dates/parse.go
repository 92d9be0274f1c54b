package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/majorfi/photo-tiles/pkg/timezone"
)

var (
	explicitOffsetPattern = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)
	compactOffsetPattern  = regexp.MustCompile(`([+-])(\d{2})(\d{2})$`)
	exifDatePattern       = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2})(?:[ T](\d{2}):(\d{2})(?::(\d{2}))?)?$`)
	isoDatePattern        = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(?:[ T](\d{2}):(\d{2})(?::(\d{2}))?)?$`)
	gpsDatePattern        = regexp.MustCompile(`^(\d{4}):(\d{2}):(\d{2})$`)
	offsetColonPattern    = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)
	offsetHHMMPattern     = regexp.MustCompile(`^([+-])(\d{2})(\d{2})$`)
	offsetHHPattern       = regexp.MustCompile(`^([+-])(\d{2})$`)
	iptcDatePattern       = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	iptcTimePattern       = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})([+-]\d{4})?$`)
)

// Layouts tried for strings carrying an explicit offset, after ±HHMM is rewritten to ±HH:MM.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02T15:04:05Z07:00",
	"2006:01:02 15:04Z07:00",
}

func validYear(t time.Time) bool {
	return t.Year() >= 1 && t.Year() <= 9999
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func normalizeOffsetSuffix(s string) string {
	m := compactOffsetPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	return s[:m[0]] + s[m[2]:m[3]] + s[m[4]:m[5]] + ":" + s[m[6]:m[7]]
}

func zonedMatch(m []string, setting timezone.Setting) (time.Time, bool) {
	parts := timezone.LocalParts{Year: atoi(m[1]), Month: time.Month(atoi(m[2])), Day: atoi(m[3])}
	if m[4] != "" {
		parts.Hour = atoi(m[4])
		parts.Minute = atoi(m[5])
		parts.Second = atoi(m[6])
	}
	return timezone.ZonedLocalToInstant(parts, setting)
}

/**************************************************************************************************
** ParseDateString interprets one textual date value.
**
** Strings ending in "Z" or a numeric offset are read at face value. EXIF colon dates and
** ISO-like dates without offset are wall-clock readings in the configured zone. Anything else
** goes through dateparse in that zone as a last resort.
**
** @param raw - Raw value
** @param setting - Zone used for values without offset
** @return time.Time - Parsed instant
** @return bool - False when the value cannot be interpreted
**************************************************************************************************/
func ParseDateString(raw string, setting timezone.Setting) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if explicitOffsetPattern.MatchString(value) {
		normalized := normalizeOffsetSuffix(value)
		for _, layout := range offsetLayouts {
			if t, err := time.Parse(layout, normalized); err == nil {
				return t, validYear(t)
			}
		}
		if t, err := dateparse.ParseAny(normalized); err == nil {
			return t, validYear(t)
		}
		return time.Time{}, false
	}

	if m := exifDatePattern.FindStringSubmatch(value); m != nil {
		return zonedMatch(m, setting)
	}
	if m := isoDatePattern.FindStringSubmatch(value); m != nil {
		return zonedMatch(m, setting)
	}

	loc, ok := setting.Location()
	if !ok {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(value, loc)
	if err != nil || !validYear(t) {
		return time.Time{}, false
	}
	return t, true
}

/**************************************************************************************************
** parseValue interprets a raw tag value of any supported type: time.Time as is, numbers as
** epoch milliseconds, strings via ParseDateString.
**************************************************************************************************/
func parseValue(value any, setting timezone.Setting) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero() && validYear(v)
	case string:
		return ParseDateString(v, setting)
	case int:
		return fromMillis(float64(v))
	case int64:
		return fromMillis(float64(v))
	case float64:
		return fromMillis(v)
	default:
		return time.Time{}, false
	}
}

func fromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return t, validYear(t)
}

/**************************************************************************************************
** normalizeZoneOffset turns an EXIF offset value into "±HH:MM". Numbers are whole hours capped
** at 23; slices use their first element.
**************************************************************************************************/
func normalizeZoneOffset(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		switch {
		case v == "":
			return "", false
		case offsetColonPattern.MatchString(v):
			return v, true
		}
		if m := offsetHHMMPattern.FindStringSubmatch(v); m != nil {
			return m[1] + m[2] + ":" + m[3], true
		}
		if m := offsetHHPattern.FindStringSubmatch(v); m != nil {
			return m[1] + m[2] + ":00", true
		}
		return "", false
	case int:
		return hoursOffset(float64(v))
	case int64:
		return hoursOffset(float64(v))
	case float64:
		return hoursOffset(v)
	case []int:
		if len(v) > 0 {
			return hoursOffset(float64(v[0]))
		}
	case []float64:
		for _, f := range v {
			if !math.IsNaN(f) && !math.IsInf(f, 0) {
				return hoursOffset(f)
			}
		}
	}
	return "", false
}

func hoursOffset(hours float64) (string, bool) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return "", false
	}
	sign := "+"
	if hours < 0 {
		sign = "-"
	}
	h := math.Min(23, math.Abs(math.Trunc(hours)))
	return fmt.Sprintf("%s%02d:00", sign, int(h)), true
}

/**************************************************************************************************
** parseWithOffset parses an EXIF date, appending the companion offset tag when the date
** carries a time of day. Without a usable offset it falls back to parseValue.
**************************************************************************************************/
func parseWithOffset(dateRaw, offsetRaw any, setting timezone.Setting) (time.Time, bool) {
	if s, ok := dateRaw.(string); ok {
		if offset, ok := normalizeZoneOffset(offsetRaw); ok {
			m := exifDatePattern.FindStringSubmatch(strings.TrimSpace(s))
			if m != nil && m[4] != "" && m[5] != "" {
				sec := m[6]
				if sec == "" {
					sec = "00"
				}
				iso := fmt.Sprintf("%s-%s-%sT%s:%s:%s%s", m[1], m[2], m[3], m[4], m[5], sec, offset)
				if t, err := time.Parse(time.RFC3339, iso); err == nil && validYear(t) {
					return t, true
				}
			}
		}
	}
	return parseValue(dateRaw, setting)
}

/**************************************************************************************************
** gpsUTC combines a GPS "YYYY:MM:DD" date stamp with an [h, m, s] time stamp. GPS time is
** always UTC.
**************************************************************************************************/
func gpsUTC(dateStamp, timeStamp any) (time.Time, bool) {
	s, ok := dateStamp.(string)
	if !ok {
		return time.Time{}, false
	}
	hms, ok := numbers(timeStamp)
	if !ok {
		return time.Time{}, false
	}
	m := gpsDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}

	var clock [3]int
	for i := 0; i < len(clock) && i < len(hms); i++ {
		if math.IsNaN(hms[i]) || math.IsInf(hms[i], 0) {
			return time.Time{}, false
		}
		clock[i] = int(math.Trunc(hms[i]))
	}
	t := time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), clock[0], clock[1], clock[2], 0, time.UTC)
	return t, validYear(t)
}

func numbers(value any) ([]float64, bool) {
	switch v := value.(type) {
	case []float64:
		return v, true
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, true
	case []any:
		out := make([]float64, 0, len(v))
		for _, n := range v {
			switch f := n.(type) {
			case float64:
				out = append(out, f)
			case int:
				out = append(out, float64(f))
			default:
				return nil, false
			}
		}
		return out, true
	}
	return nil, false
}

/**************************************************************************************************
** rawString renders a raw tag value for display: strings as is, instants in ISO form, numbers
** in decimal and anything else as JSON. Nil renders as "".
**************************************************************************************************/
func rawString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format("2006-01-02T15:04:05.000Z")
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

/**************************************************************************************************
** normalizeIPTCDate rewrites the IIM compact forms "CCYYMMDD" and "HHMMSS±HHMM" into ISO so
** the generic rules apply. Other values pass through.
**************************************************************************************************/
func normalizeIPTCDate(value string) string {
	value = strings.TrimSpace(value)
	if m := iptcDatePattern.FindStringSubmatch(value); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return value
}

func normalizeIPTCTime(value string) string {
	value = strings.TrimSpace(value)
	if m := iptcTimePattern.FindStringSubmatch(value); m != nil {
		out := m[1] + ":" + m[2] + ":" + m[3]
		if m[4] != "" {
			out += m[4][:3] + ":" + m[4][3:]
		}
		return out
	}
	return value
}
