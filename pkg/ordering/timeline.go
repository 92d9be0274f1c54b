package ordering

import (
	"strings"

	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
)

// TimelineMaxPerRow is the default number of tiles per timeline row.
const TimelineMaxPerRow = 3

/**************************************************************************************************
** DayOrdinal is the 1-based position of an item inside its day and the size of that day.
**************************************************************************************************/
type DayOrdinal struct {
	IndexInDay int `json:"indexInDay"`
	TotalInDay int `json:"totalInDay"`
}

/**************************************************************************************************
** DayGroup is one calendar day of the timeline with its items in display order.
**************************************************************************************************/
type DayGroup struct {
	Key   string             `json:"key"`
	Items []utils.TPhotoItem `json:"items"`
}

/**************************************************************************************************
** ChunkRows splits an ordered list into rows of at most maxPerRow items. It only slices the
** list; order is untouched. Values below 1 are treated as 1.
**
** @param items - Ordered items
** @param maxPerRow - Row width
** @return [][]utils.TPhotoItem - Rows, the last one possibly shorter
**************************************************************************************************/
func ChunkRows(items []utils.TPhotoItem, maxPerRow int) [][]utils.TPhotoItem {
	if maxPerRow < 1 {
		maxPerRow = 1
	}
	rows := make([][]utils.TPhotoItem, 0, (len(items)+maxPerRow-1)/maxPerRow)
	for i := 0; i < len(items); i += maxPerRow {
		end := i + maxPerRow
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[i:end])
	}
	return rows
}

/**************************************************************************************************
** GroupByDay splits an ordered list into day groups, in order of first appearance.
**************************************************************************************************/
func GroupByDay(items []utils.TPhotoItem, setting timezone.Setting) []DayGroup {
	groups := []DayGroup{}
	index := make(map[string]int)
	for _, item := range items {
		key := DayKey(item, setting)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Key: key})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

/**************************************************************************************************
** BuildDayOrdinals numbers every item inside its day, following the list order.
**
** @param items - Ordered items
** @param setting - Zone for calendar days
** @return map[string]DayOrdinal - Ordinal per item id
**************************************************************************************************/
func BuildDayOrdinals(items []utils.TPhotoItem, setting timezone.Setting) map[string]DayOrdinal {
	out := make(map[string]DayOrdinal, len(items))
	for _, group := range GroupByDay(items, setting) {
		for i, item := range group.Items {
			out[item.ID] = DayOrdinal{IndexInDay: i + 1, TotalInDay: len(group.Items)}
		}
	}
	return out
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// RomanNumeral renders n for row rails. Non-positive values give an empty string.
func RomanNumeral(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}
