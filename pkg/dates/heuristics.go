package dates

import (
	"sort"
	"time"

	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
)

/**************************************************************************************************
** HeuristicReport describes what one batch heuristics pass found and changed.
**************************************************************************************************/
type HeuristicReport struct {
	Items                   int            `json:"items"`
	DominantImportDay       string         `json:"dominantImportDay,omitempty"`
	DominantLastModifiedDay string         `json:"dominantLastModifiedDay,omitempty"`
	LastModifiedDayRatio    float64        `json:"lastModifiedDayRatio"`
	LastModifiedSpread      time.Duration  `json:"lastModifiedSpread"`
	LastModifiedCoincides   bool           `json:"lastModifiedCoincides"`
	ClusteredFields         []string       `json:"clusteredFields"`
	Demotions               map[string]int `json:"demotions"`
}

// dayCounter counts keys and remembers first-seen order for ties.
type dayCounter struct {
	counts map[string]int
	order  []string
}

func newDayCounter() *dayCounter {
	return &dayCounter{counts: make(map[string]int)}
}

func (d *dayCounter) add(key string) {
	if _, ok := d.counts[key]; !ok {
		d.order = append(d.order, key)
	}
	d.counts[key]++
}

func (d *dayCounter) dominant() (string, int) {
	best, bestCount := "", 0
	for _, key := range d.order {
		if d.counts[key] > bestCount {
			best, bestCount = key, d.counts[key]
		}
	}
	return best, bestCount
}

func lastModifiedOf(item utils.TPhotoItem) time.Time {
	if c, ok := item.Candidate(utils.FieldFileLastModified); ok && c.HasParsed() {
		return c.Parsed
	}
	return item.FallbackDate
}

func clusterExempt(field string) bool {
	switch field {
	case utils.FieldDateTimeOriginal, utils.FieldGPSDateTime, utils.FieldFileLastModified:
		return true
	}
	return IsNeverEffectiveField(field)
}

/**************************************************************************************************
** analyze computes the batch-wide signals. Every signal is derived from parsed instants and
** import times only, never from confidence or eligibility, so a second pass over already
** demoted items sees exactly the same signals.
**************************************************************************************************/
func analyze(items []utils.TPhotoItem, setting timezone.Setting) HeuristicReport {
	report := HeuristicReport{Items: len(items), ClusteredFields: []string{}, Demotions: map[string]int{}}
	if len(items) == 0 {
		return report
	}

	imported := newDayCounter()
	modified := newDayCounter()
	var minLM, maxLM time.Time
	lmCount := 0
	fieldMinutes := make(map[string]map[int64]int)

	for _, item := range items {
		imported.add(timezone.CalendarKey(item.ImportedAt, setting))

		if lm := lastModifiedOf(item); !lm.IsZero() {
			modified.add(timezone.CalendarKey(lm, setting))
			if lmCount == 0 || lm.Before(minLM) {
				minLM = lm
			}
			if lmCount == 0 || lm.After(maxLM) {
				maxLM = lm
			}
			lmCount++
		}

		for _, c := range item.DateCandidates {
			if !c.HasParsed() || clusterExempt(c.Field) {
				continue
			}
			buckets, ok := fieldMinutes[c.Field]
			if !ok {
				buckets = make(map[int64]int)
				fieldMinutes[c.Field] = buckets
			}
			buckets[c.Parsed.Truncate(time.Minute).Unix()]++
		}
	}

	total := float64(len(items))
	importDay, _ := imported.dominant()
	lmDay, lmDayCount := modified.dominant()
	report.DominantImportDay = importDay
	report.DominantLastModifiedDay = lmDay
	report.LastModifiedDayRatio = float64(lmDayCount) / total
	if lmCount > 1 {
		report.LastModifiedSpread = maxLM.Sub(minLM)
	}
	report.LastModifiedCoincides = importDay != "" && lmDay != "" &&
		importDay == lmDay &&
		report.LastModifiedDayRatio >= utils.LastModifiedDayMinRatio &&
		report.LastModifiedSpread <= utils.LastModifiedMaxSpread

	for field, buckets := range fieldMinutes {
		top := 0
		for _, n := range buckets {
			if n > top {
				top = n
			}
		}
		if top >= utils.ClusterMinItems && float64(top)/total >= utils.ClusterMinRatio {
			report.ClusteredFields = append(report.ClusteredFields, field)
		}
	}
	sort.Strings(report.ClusteredFields)
	return report
}

// demote lowers a candidate to very_low and makes it ineligible. It never raises confidence.
func demote(c utils.TDateCandidate) utils.TDateCandidate {
	if c.Confidence.Rank() > utils.ConfidenceVeryLow.Rank() {
		c.Confidence = utils.ConfidenceVeryLow
	}
	c.UsedForEffectiveDate = false
	return c
}

func nearUpload(c utils.TDateCandidate, importedAt time.Time) bool {
	if !c.HasParsed() || !c.UsedForEffectiveDate || importedAt.IsZero() {
		return false
	}
	if c.Field == utils.FieldDateTimeOriginal || c.Field == utils.FieldGPSDateTime {
		return false
	}
	diff := c.Parsed.Sub(importedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= utils.NearUploadWindow
}

/**************************************************************************************************
** AnalyzeBatch runs one heuristics pass over the whole collection and returns re-resolved
** copies of the items together with a report of what fired.
**
** Rules, in the order they are tried per candidate:
**   - modify-time fields are always ineligible;
**   - file.lastModified is demoted batch-wide when the dominant import day equals the dominant
**     last-modified day, that day covers at least 70% of items and the spread is at most 6h;
**   - a field whose parsed instants pile up in one UTC minute for at least 4 items and 80% of
**     the batch is demoted everywhere;
**   - an eligible candidate within 10 minutes of the item's import time is demoted, except
**     DateTimeOriginal and GPS.
**
** @param items - Whole collection
** @param setting - Zone for calendar days
** @return []utils.TPhotoItem - Copies with demoted candidates and fresh effective dates
** @return HeuristicReport - Signals and demotion counts per rule
**************************************************************************************************/
func AnalyzeBatch(items []utils.TPhotoItem, setting timezone.Setting) ([]utils.TPhotoItem, HeuristicReport) {
	report := analyze(items, setting)
	if len(items) == 0 {
		return items, report
	}

	clustered := make(map[string]bool, len(report.ClusteredFields))
	for _, field := range report.ClusteredFields {
		clustered[field] = true
	}

	out := make([]utils.TPhotoItem, len(items))
	for i, item := range items {
		next := item.Clone()
		for j, c := range next.DateCandidates {
			var updated utils.TDateCandidate
			var reason string
			switch {
			case IsNeverEffectiveField(c.Field):
				updated = c
				updated.UsedForEffectiveDate = false
			case c.Field == utils.FieldFileLastModified && report.LastModifiedCoincides:
				updated, reason = demote(c), utils.REASON_BATCH_SAME_DAY
			case clustered[c.Field]:
				updated, reason = demote(c), utils.REASON_BATCH_CLUSTER
			case nearUpload(c, item.ImportedAt):
				updated, reason = demote(c), utils.REASON_NEAR_UPLOAD
			default:
				updated = c
			}
			if reason != "" && updated != c {
				report.Demotions[reason]++
			}
			next.DateCandidates[j] = updated
		}
		Apply(&next)
		out[i] = next
	}
	return out, report
}

/**************************************************************************************************
** ApplyBatchHeuristics is AnalyzeBatch without the report.
**************************************************************************************************/
func ApplyBatchHeuristics(items []utils.TPhotoItem, setting timezone.Setting) []utils.TPhotoItem {
	out, _ := AnalyzeBatch(items, setting)
	return out
}
