package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/ordering"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func photo(id, date string, source utils.TDateSource, orderKey int) utils.TPhotoItem {
	item := utils.TPhotoItem{
		ID:         id,
		Source:     metadata.NewMemorySource(id+".jpg", nil, time.Time{}),
		DateSource: source,
		OrderKey:   orderKey,
		Crop:       utils.TCrop{X: 0, Y: 0, Size: 1},
		CropMode:   utils.CropModeContain,
	}
	if date != "" {
		item.EffectiveDate = at(date)
	}
	return item
}

func entryIDs(m Manifest) []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.ID
	}
	return out
}

func TestBuildOrderAndDates(t *testing.T) {
	items := []utils.TPhotoItem{
		photo("unknown", "", utils.DateSourceUnknown, 0),
		photo("late", "2024-06-16T03:00:00Z", utils.DateSourceExif, 1),
		photo("early", "2024-06-14T16:30:00Z", utils.DateSourceFile, 2),
		photo("same-day", "2024-06-15T01:00:00Z", utils.DateSourceManual, 3),
	}
	items[3].CropIsManual = true

	m := Build(items, Options{ShowDates: true, Setting: timezone.Taipei})
	assert.Equal(t, []string{"early", "same-day", "late", "unknown"}, entryIDs(m))

	sorted := ordering.Sort(items, ordering.Ascending, timezone.Taipei)
	for i, item := range sorted {
		assert.Equal(t, item.ID, m.Entries[i].ID, "entries follow the comparator")
	}

	early := m.Entries[0]
	require.NotNil(t, early.EffectiveDate)
	assert.Equal(t, "2024-06-14T16:30:00Z", *early.EffectiveDate)
	assert.Equal(t, "2024/6/15", early.Label)
	assert.Equal(t, "2024-06-15", early.DayKey)
	assert.True(t, early.LowConfidence)
	assert.Equal(t, ordering.DayOrdinal{IndexInDay: 1, TotalInDay: 2}, early.Ordinal)
	assert.Equal(t, utils.CropModeContain, early.CropMode)
	assert.Equal(t, "early.jpg", early.Name)

	assert.Equal(t, utils.CropModeCover, m.Entries[1].CropMode, "manual crops cover")
	assert.False(t, m.Entries[1].LowConfidence)

	unknown := m.Entries[3]
	assert.Nil(t, unknown.EffectiveDate)
	assert.Equal(t, utils.DateSourceUnknown, unknown.DateSource)
	assert.Equal(t, "unknown date", unknown.Label)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	entries := decoded["entries"].([]any)
	last := entries[3].(map[string]any)
	value, present := last["effectiveDate"]
	assert.True(t, present, "missing dates are explicit nulls")
	assert.Nil(t, value)
}

func TestBuildHidesLabels(t *testing.T) {
	m := Build([]utils.TPhotoItem{photo("a", "2024-06-15T01:00:00Z", utils.DateSourceExif, 0)}, Options{Setting: "UTC"})
	assert.Empty(t, m.Entries[0].Label)
	assert.Equal(t, ModeGrid, m.Mode)
	assert.Equal(t, utils.DefaultPreviewColumns, m.Columns)
}

func TestBuildPages(t *testing.T) {
	items := make([]utils.TPhotoItem, 0, 25)
	for i := 0; i < 25; i++ {
		items = append(items, photo(fmt.Sprintf("p%02d", i), "2024-06-15T01:00:00Z", utils.DateSourceExif, i))
	}

	tests := []struct {
		name        string
		opts        Options
		columns     int
		pages       int
		firstRowLen int
		numeral     string
	}{
		{name: "grid clamps columns up", opts: Options{Columns: 1, RowsPerPage: 5}, columns: 2, pages: 3, firstRowLen: 2},
		{name: "grid clamps columns down", opts: Options{Columns: 9}, columns: 6, pages: 1, firstRowLen: 6},
		{name: "timeline rows of three", opts: Options{Mode: ModeTimeline, Columns: 5}, columns: 3, pages: 2, firstRowLen: 3, numeral: "I"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Setting = "UTC"
			m := Build(items, tt.opts)
			assert.Equal(t, tt.columns, m.Columns)
			require.Len(t, m.Pages, tt.pages)
			assert.Len(t, m.Pages[0].Rows[0].IDs, tt.firstRowLen)
			assert.Equal(t, tt.numeral, m.Pages[0].Rows[0].Numeral)

			var flattened []string
			for p, page := range m.Pages {
				assert.Equal(t, p+1, page.Number)
				for _, row := range page.Rows {
					flattened = append(flattened, row.IDs...)
				}
			}
			assert.Equal(t, entryIDs(m), flattened)
		})
	}

	m := Build(items, Options{Mode: ModeTimeline, Setting: "UTC"})
	second := m.Pages[1].Rows[0]
	assert.Equal(t, TimelineRowsPerPage, second.Index)
	assert.Equal(t, "IX", second.Numeral)
}

func TestParseModeAndFileName(t *testing.T) {
	mode, err := ParseMode("Timeline")
	require.NoError(t, err)
	assert.Equal(t, ModeTimeline, mode)
	mode, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeGrid, mode)
	_, err = ParseMode("mosaic")
	assert.Error(t, err)

	stamp := at("2024-06-15T10:30:00Z")
	single := Manifest{Mode: ModeGrid, Pages: []Page{{Number: 1}}}
	assert.Equal(t, "photo-tiles-grid-2024-06-15-10-30-00.png", FileName(single, 1, "png", stamp))
	multi := Manifest{Mode: ModeTimeline, Pages: []Page{{Number: 1}, {Number: 2}}}
	assert.Equal(t, "photo-tiles-timeline-p2-2024-06-15-10-30-00.jpg", FileName(multi, 2, "jpg", stamp))
	assert.Equal(t, "photo-tiles-timeline-2024-06-15-10-30-00.json", FileName(multi, 0, "json", stamp))
}
