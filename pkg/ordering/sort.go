/**************************************************************************************************
** Package ordering sorts resolved photo items into timeline order and lays them out by day.
** Items are ordered by zone-local calendar day; within a day they keep the user's manual order.
**************************************************************************************************/
package ordering

import (
	"fmt"
	"sort"
	"strings"

	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
)

/**************************************************************************************************
** Direction is the global calendar-day direction. It never affects the order inside a day.
**************************************************************************************************/
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

/**************************************************************************************************
** ParseDirection reads a direction setting. Empty input means ascending.
**
** @param raw - "asc" or "desc", case insensitive
** @return Direction - Parsed direction
** @return error - Error for any other value
**************************************************************************************************/
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(Ascending):
		return Ascending, nil
	case string(Descending):
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (expected asc or desc)", raw)
	}
}

// DayKey returns the "YYYY-MM-DD" bucket of an item's effective date, or "unknown".
func DayKey(item utils.TPhotoItem, setting timezone.Setting) string {
	return timezone.CalendarKey(item.EffectiveDate, setting)
}

/**************************************************************************************************
** Compare orders two items for the timeline:
**   - items with a known effective date come before items without one;
**   - unknown items are ordered by OrderKey;
**   - known items are ordered by calendar day number following dir;
**   - items on the same day are ordered by OrderKey ascending, whatever dir is.
**
** @param a - First item
** @param b - Second item
** @param dir - Day direction
** @param setting - Zone for calendar days
** @return int - Negative if a sorts first, positive if b sorts first, 0 if equal
**************************************************************************************************/
func Compare(a, b utils.TPhotoItem, dir Direction, setting timezone.Setting) int {
	aDay, aKnown := timezone.DayNumber(a.EffectiveDate, setting)
	bDay, bKnown := timezone.DayNumber(b.EffectiveDate, setting)
	if aKnown != bKnown {
		if aKnown {
			return -1
		}
		return 1
	}
	if aKnown && aDay != bDay {
		if dir == Descending {
			return bDay - aDay
		}
		return aDay - bDay
	}
	return a.OrderKey - b.OrderKey
}

/**************************************************************************************************
** Sort returns a stably sorted copy of items. The input slice is not modified.
**
** @param items - Items to sort
** @param dir - Day direction
** @param setting - Zone for calendar days
** @return []utils.TPhotoItem - Sorted copy
**************************************************************************************************/
func Sort(items []utils.TPhotoItem, dir Direction, setting timezone.Setting) []utils.TPhotoItem {
	sorted := make([]utils.TPhotoItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j], dir, setting) < 0
	})
	return sorted
}

/**************************************************************************************************
** Renumber assigns every item's OrderKey and ManualOrderIndex to its position in the slice,
** dense and zero-based. It returns a new slice.
**************************************************************************************************/
func Renumber(items []utils.TPhotoItem) []utils.TPhotoItem {
	out := make([]utils.TPhotoItem, len(items))
	for i, item := range items {
		item.OrderKey = i
		item.ManualOrderIndex = i
		out[i] = item
	}
	return out
}

func indexOfID(items []utils.TPhotoItem, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// move removes the element at from and reinserts it at to.
func move(items []utils.TPhotoItem, from, to int) []utils.TPhotoItem {
	next := make([]utils.TPhotoItem, 0, len(items))
	moved := items[from]
	next = append(next, items[:from]...)
	next = append(next, items[from+1:]...)
	next = append(next[:to], append([]utils.TPhotoItem{moved}, next[to:]...)...)
	return next
}

/**************************************************************************************************
** MoveWithinDay moves an item delta positions inside its own day bucket of an already sorted
** list, then renumbers the whole list. Moving past either end of the day is refused.
**
** @param sorted - Items in timeline order
** @param id - Item to move
** @param delta - Positions to move, negative for earlier
** @param setting - Zone for calendar days
** @return []utils.TPhotoItem - Renumbered list, or the input when nothing moved
** @return bool - True if the item moved
**************************************************************************************************/
func MoveWithinDay(sorted []utils.TPhotoItem, id string, delta int, setting timezone.Setting) ([]utils.TPhotoItem, bool) {
	idx := indexOfID(sorted, id)
	if idx == -1 || delta == 0 {
		return sorted, false
	}

	day := DayKey(sorted[idx], setting)
	var group []int
	for i, item := range sorted {
		if DayKey(item, setting) == day {
			group = append(group, i)
		}
	}

	pos := -1
	for i, g := range group {
		if g == idx {
			pos = i
			break
		}
	}
	nextPos := pos + delta
	if pos == -1 || nextPos < 0 || nextPos >= len(group) {
		return sorted, false
	}
	return Renumber(move(sorted, group[pos], group[nextPos])), true
}

/**************************************************************************************************
** MoveWithinDayGroup is the drag and drop form of MoveWithinDay: the source item takes the
** target item's slot. Both items must belong to the given day bucket.
**
** @param sorted - Items in timeline order
** @param sourceID - Dragged item
** @param targetID - Item dropped on
** @param group - Day key the drag started in
** @param setting - Zone for calendar days
** @return []utils.TPhotoItem - Renumbered list, or the input when nothing moved
** @return bool - True if the item moved
**************************************************************************************************/
func MoveWithinDayGroup(sorted []utils.TPhotoItem, sourceID, targetID, group string, setting timezone.Setting) ([]utils.TPhotoItem, bool) {
	from := indexOfID(sorted, sourceID)
	to := indexOfID(sorted, targetID)
	if from == -1 || to == -1 || from == to {
		return sorted, false
	}
	if DayKey(sorted[from], setting) != group || DayKey(sorted[to], setting) != group {
		return sorted, false
	}
	return Renumber(move(sorted, from, to)), true
}
