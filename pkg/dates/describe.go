package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
)

// FieldManual is the pseudo field reported when the user typed the date.
const FieldManual = "manual"

// UnknownDateLabel is shown for items without any date.
const UnknownDateLabel = "unknown date"

/**************************************************************************************************
** TSelectionExplanation tells the user why an item got its date.
**************************************************************************************************/
type TSelectionExplanation struct {
	Field      string            `json:"field,omitempty"`
	Rank       int               `json:"rank,omitempty"`
	Confidence utils.TConfidence `json:"confidence,omitempty"`
	Reason     string            `json:"reason"`
}

/**************************************************************************************************
** Describe explains the current selection of an already resolved item. The override reason is
** only given when the override actually won; an override that fell through is described by the
** rule that did apply.
**
** @param item - Resolved item
** @return TSelectionExplanation - Field, priority rank, confidence and reason
**************************************************************************************************/
func Describe(item utils.TPhotoItem) TSelectionExplanation {
	if !item.ManualDate.IsZero() {
		return TSelectionExplanation{Field: FieldManual, Reason: "set manually by the user"}
	}

	field := item.EffectiveDateField
	if field == "" {
		if !item.EffectiveDate.IsZero() {
			return TSelectionExplanation{Reason: "no usable capture date found, using the file date"}
		}
		return TSelectionExplanation{Reason: "no usable capture date found"}
	}

	var confidence utils.TConfidence
	if c, ok := item.Candidate(field); ok {
		confidence = c.Confidence
	}

	if item.DateOverrideField != "" && field == item.DateOverrideField {
		return TSelectionExplanation{Field: field, Confidence: confidence, Reason: "user chose this date source"}
	}

	if rank := EffectivePriorityRank(field); rank > 0 {
		return TSelectionExplanation{
			Field:      field,
			Rank:       rank,
			Confidence: confidence,
			Reason:     fmt.Sprintf("selected by fixed priority rank %d", rank),
		}
	}
	return TSelectionExplanation{Field: field, Confidence: confidence, Reason: "selected by fixed rule"}
}

/**************************************************************************************************
** DetectOffByOneDay lists the candidate fields whose parsed instant falls on a calendar day
** adjacent to the effective date's day, in the configured zone. The effective field itself is
** skipped. Such pairs usually mean a field was written in a different zone.
**
** @param item - Resolved item
** @param setting - Zone for calendar days
** @return []string - Fields, in candidate order
**************************************************************************************************/
func DetectOffByOneDay(item utils.TPhotoItem, setting timezone.Setting) []string {
	fields := []string{}
	effective, ok := timezone.DayIndex(item.EffectiveDate, setting)
	if !ok {
		return fields
	}
	for _, c := range item.DateCandidates {
		if !c.HasParsed() || (item.EffectiveDateField != "" && c.Field == item.EffectiveDateField) {
			continue
		}
		day, ok := timezone.DayIndex(c.Parsed, setting)
		if !ok {
			continue
		}
		if day-effective == 1 || effective-day == 1 {
			fields = append(fields, c.Field)
		}
	}
	return fields
}

// IsLowConfidenceSource reports whether a date source deserves a warning badge.
func IsLowConfidenceSource(source utils.TDateSource) bool {
	return source == utils.DateSourceFile || source == utils.DateSourceUnknown
}

/**************************************************************************************************
** FormatDateLabel renders the zone-local calendar day as "YYYY/M/D" without zero padding, or
** UnknownDateLabel for an absent date.
**************************************************************************************************/
func FormatDateLabel(t time.Time, setting timezone.Setting) string {
	p, ok := timezone.CalendarParts(t, setting)
	if !ok {
		return UnknownDateLabel
	}
	return fmt.Sprintf("%d/%d/%d", p.Year, int(p.Month), p.Day)
}

/**************************************************************************************************
** ParseLocalDateTime reads a date editor value: "YYYY-MM-DD" plus an optional "HH:MM", as a
** wall-clock reading in the configured zone.
**
** @param dateStr - Date part
** @param timeStr - Time part, may be empty
** @param setting - Zone of the reading
** @return time.Time - Instant
** @return bool - False for malformed input
**************************************************************************************************/
func ParseLocalDateTime(dateStr, timeStr string, setting timezone.Setting) (time.Time, bool) {
	dateParts := strings.Split(strings.TrimSpace(dateStr), "-")
	if len(dateParts) != 3 {
		return time.Time{}, false
	}
	var ymd [3]int
	for i, part := range dateParts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		ymd[i] = n
	}

	var hour, minute int
	if timeStr = strings.TrimSpace(timeStr); timeStr != "" {
		clock := strings.Split(timeStr, ":")
		if len(clock) < 1 || len(clock) > 3 {
			return time.Time{}, false
		}
		var err error
		if hour, err = strconv.Atoi(clock[0]); err != nil {
			return time.Time{}, false
		}
		if len(clock) > 1 {
			if minute, err = strconv.Atoi(clock[1]); err != nil {
				return time.Time{}, false
			}
		}
	}

	return timezone.ZonedLocalToInstant(timezone.LocalParts{
		Year:   ymd[0],
		Month:  time.Month(ymd[1]),
		Day:    ymd[2],
		Hour:   hour,
		Minute: minute,
	}, setting)
}
