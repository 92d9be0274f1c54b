// Package timezone does calendar arithmetic in a configured display zone: the user's runtime
// zone ("browser") or a named IANA zone.
package timezone

import (
	"fmt"
	"strings"
	"time"

	"github.com/majorfi/photo-tiles/pkg/utils"
)

/**************************************************************************************************
** Setting selects the zone used to interpret wall-clock metadata and to compute calendar days.
** Browser means the runtime's local zone; any other value is an IANA zone name.
**************************************************************************************************/
type Setting string

const (
	Browser Setting = "browser"
	Taipei  Setting = "Asia/Taipei"
)

// DefaultSetting is used when nothing is configured.
const DefaultSetting = Browser

// Parts is a calendar day in a zone.
type Parts struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalParts is a wall-clock reading in a zone.
type LocalParts struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

/**************************************************************************************************
** ParseSetting validates a configured zone value. An empty value yields the default. Zone
** names are case sensitive, except for "browser".
**
** @param raw - Raw setting from env or flags
** @return Setting - Validated setting
** @return error - If the value is not a loadable IANA zone
**************************************************************************************************/
func ParseSetting(raw string) (Setting, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, string(Browser)) {
		return Browser, nil
	}
	if _, err := utils.LoadLocation(raw); err != nil {
		return "", fmt.Errorf("invalid time zone %q: %w", raw, err)
	}
	return Setting(raw), nil
}

/**************************************************************************************************
** Location resolves the setting to a *time.Location. Browser resolves to time.Local.
**
** @return *time.Location - Resolved zone
** @return bool - False when the zone name cannot be loaded
**************************************************************************************************/
func (s Setting) Location() (*time.Location, bool) {
	if s == Browser || s == "" {
		return time.Local, true
	}
	loc, err := utils.LoadLocation(string(s))
	if err != nil {
		return nil, false
	}
	return loc, true
}

func (s Setting) String() string {
	return string(s)
}

/**************************************************************************************************
** CalendarParts returns the calendar day of the instant as seen in the configured zone.
**
** @param t - Instant, must not be zero
** @param setting - Zone setting
** @return Parts - Year, month and day in that zone
** @return bool - False for a zero instant or an unloadable zone
**************************************************************************************************/
func CalendarParts(t time.Time, setting Setting) (Parts, bool) {
	if t.IsZero() {
		return Parts{}, false
	}
	loc, ok := setting.Location()
	if !ok {
		return Parts{}, false
	}
	y, m, d := t.In(loc).Date()
	return Parts{Year: y, Month: m, Day: d}, true
}

/**************************************************************************************************
** CalendarKey returns the "YYYY-MM-DD" calendar day of the instant in the configured zone, or
** "unknown" when the instant is absent.
**************************************************************************************************/
func CalendarKey(t time.Time, setting Setting) string {
	p, ok := CalendarParts(t, setting)
	if !ok {
		return utils.UnknownDayKey
	}
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
}

/**************************************************************************************************
** DayNumber folds the zone-local calendar day into year*10000+month*100+day, which orders the
** same way the calendar does.
**************************************************************************************************/
func DayNumber(t time.Time, setting Setting) (int, bool) {
	p, ok := CalendarParts(t, setting)
	if !ok {
		return 0, false
	}
	return p.Year*10000 + int(p.Month)*100 + p.Day, true
}

/**************************************************************************************************
** DayIndex returns the number of days between 1970-01-01 and the zone-local calendar day of t.
** Two instants on adjacent local days always differ by exactly one.
**************************************************************************************************/
func DayIndex(t time.Time, setting Setting) (int, bool) {
	p, ok := CalendarParts(t, setting)
	if !ok {
		return 0, false
	}
	day := time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, time.UTC)
	return int(day.Unix() / 86400), true
}

func validParts(p LocalParts) bool {
	if p.Year < 1 || p.Year > 9999 {
		return false
	}
	if p.Month < time.January || p.Month > time.December || p.Day < 1 || p.Day > 31 {
		return false
	}
	if p.Hour < 0 || p.Hour > 23 || p.Minute < 0 || p.Minute > 59 || p.Second < 0 || p.Second > 60 {
		return false
	}
	return p.Nanosecond >= 0 && p.Nanosecond < int(time.Second)
}

func offsetAt(t time.Time, loc *time.Location) time.Duration {
	_, offset := t.In(loc).Zone()
	return time.Duration(offset) * time.Second
}

/**************************************************************************************************
** ZonedLocalToInstant converts a wall-clock reading in the configured zone into an instant.
**
** For Browser the runtime resolves the local time itself. For an IANA zone the reading is first
** taken as if it were UTC, the zone offset at that guess is subtracted, and the offset is
** recomputed at the result: if it moved (the reading straddles a transition) the guess is
** corrected once with the new offset.
**
** @param p - Wall-clock reading
** @param setting - Zone setting
** @return time.Time - Resulting instant, in UTC for IANA zones
** @return bool - False for out-of-range parts or an unloadable zone
**************************************************************************************************/
func ZonedLocalToInstant(p LocalParts, setting Setting) (time.Time, bool) {
	if !validParts(p) {
		return time.Time{}, false
	}

	if setting == Browser || setting == "" {
		return time.Date(p.Year, p.Month, p.Day, p.Hour, p.Minute, p.Second, p.Nanosecond, time.Local), true
	}

	loc, ok := setting.Location()
	if !ok {
		return time.Time{}, false
	}

	guess := time.Date(p.Year, p.Month, p.Day, p.Hour, p.Minute, p.Second, p.Nanosecond, time.UTC)
	offset := offsetAt(guess, loc)
	instant := guess.Add(-offset)
	if corrected := offsetAt(instant, loc); corrected != offset {
		instant = guess.Add(-corrected)
	}
	return instant, true
}

/**************************************************************************************************
** ShiftCalendarDayKeepingTime moves an instant by deltaDays zone-local calendar days while
** keeping its zone-local time of day. A delta of 0 returns the input unchanged.
**
** @param t - Instant to shift
** @param deltaDays - Signed number of calendar days
** @param setting - Zone setting
** @return time.Time - Shifted instant
** @return bool - False when the instant is absent or the zone cannot be resolved
**************************************************************************************************/
func ShiftCalendarDayKeepingTime(t time.Time, deltaDays int, setting Setting) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	if deltaDays == 0 {
		return t, true
	}

	if setting == Browser || setting == "" {
		return t.In(time.Local).AddDate(0, 0, deltaDays), true
	}

	loc, ok := setting.Location()
	if !ok {
		return time.Time{}, false
	}

	local := t.In(loc)
	// Noon never lands on the wrong side of a date line, whatever the zone.
	next := time.Date(local.Year(), local.Month(), local.Day()+deltaDays, 12, 0, 0, 0, time.UTC)
	return ZonedLocalToInstant(LocalParts{
		Year:       next.Year(),
		Month:      next.Month(),
		Day:        next.Day(),
		Hour:       local.Hour(),
		Minute:     local.Minute(),
		Second:     local.Second(),
		Nanosecond: local.Nanosecond(),
	}, setting)
}

/**************************************************************************************************
** FromTime reads the zone-local wall clock of an instant.
**************************************************************************************************/
func FromTime(t time.Time, setting Setting) (LocalParts, bool) {
	if t.IsZero() {
		return LocalParts{}, false
	}
	loc, ok := setting.Location()
	if !ok {
		return LocalParts{}, false
	}
	l := t.In(loc)
	return LocalParts{
		Year:       l.Year(),
		Month:      l.Month(),
		Day:        l.Day(),
		Hour:       l.Hour(),
		Minute:     l.Minute(),
		Second:     l.Second(),
		Nanosecond: l.Nanosecond(),
	}, true
}
