/**************************************************************************************************
** Package export lays the resolved collection out the way the collage renderer consumes it: a
** grid of square tiles or a timeline of rows, split into pages, with per-tile date labels.
** The manifest is plain data and is written as JSON.
**************************************************************************************************/
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/ordering"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
)

/**************************************************************************************************
** Mode selects the collage layout.
**************************************************************************************************/
type Mode string

const (
	ModeGrid     Mode = "grid"
	ModeTimeline Mode = "timeline"
)

// Layout limits of the collage renderer.
const (
	MinGridColumns      = 2
	MaxGridColumns      = 6
	GridRowsPerPage     = 10
	TimelineRowsPerPage = 8
)

// ParseMode reads a layout name. Empty input means grid.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ModeGrid):
		return ModeGrid, nil
	case string(ModeTimeline):
		return ModeTimeline, nil
	default:
		return "", fmt.Errorf("invalid export mode %q (expected grid or timeline)", raw)
	}
}

/**************************************************************************************************
** Options are the display options of an export.
**************************************************************************************************/
type Options struct {
	Mode        Mode
	Columns     int
	ShowDates   bool
	Setting     timezone.Setting
	Direction   ordering.Direction
	RowsPerPage int
}

/**************************************************************************************************
** Entry is one tile. EffectiveDate is null, never omitted, for items without a date.
**************************************************************************************************/
type Entry struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	EffectiveDate *string             `json:"effectiveDate"`
	DateSource    utils.TDateSource   `json:"dateSource"`
	DateField     string              `json:"dateField,omitempty"`
	LowConfidence bool                `json:"lowConfidence"`
	DayKey        string              `json:"dayKey"`
	Label         string              `json:"label,omitempty"`
	Ordinal       ordering.DayOrdinal `json:"ordinal"`
	Crop          utils.TCrop         `json:"crop"`
	CropMode      utils.TCropMode     `json:"cropMode"`
	ThumbPath     string              `json:"thumbPath,omitempty"`
}

/**************************************************************************************************
** Row is one row of tiles. Timeline rows carry a roman numeral for the rail.
**************************************************************************************************/
type Row struct {
	Index   int      `json:"index"`
	Numeral string   `json:"numeral,omitempty"`
	IDs     []string `json:"ids"`
}

// Page is one rendered image of the export.
type Page struct {
	Number int   `json:"number"`
	Rows   []Row `json:"rows"`
}

/**************************************************************************************************
** Manifest is a complete export layout. Entries are in timeline comparator order.
**************************************************************************************************/
type Manifest struct {
	Mode      Mode               `json:"mode"`
	TimeZone  timezone.Setting   `json:"timeZone"`
	Direction ordering.Direction `json:"direction"`
	Columns   int                `json:"columns"`
	ShowDates bool               `json:"showDates"`
	Entries   []Entry            `json:"entries"`
	Pages     []Page             `json:"pages"`
}

func columnsFor(opts Options) int {
	if opts.Mode == ModeTimeline {
		return ordering.TimelineMaxPerRow
	}
	cols := opts.Columns
	if cols == 0 {
		cols = utils.DefaultPreviewColumns
	}
	if cols < MinGridColumns {
		cols = MinGridColumns
	}
	if cols > MaxGridColumns {
		cols = MaxGridColumns
	}
	return cols
}

func rowsPerPage(opts Options) int {
	if opts.RowsPerPage > 0 {
		return opts.RowsPerPage
	}
	if opts.Mode == ModeTimeline {
		return TimelineRowsPerPage
	}
	return GridRowsPerPage
}

// tileMode is the mode the renderer draws with: a manual crop always covers.
func tileMode(item utils.TPhotoItem) utils.TCropMode {
	if item.CropIsManual || item.CropMode == "" {
		return utils.CropModeCover
	}
	return item.CropMode
}

/**************************************************************************************************
** Build sorts the items with the timeline comparator and lays them out.
**
** @param items - Resolved items, in any order
** @param opts - Display options
** @return Manifest - Layout ready to render or serialize
**************************************************************************************************/
func Build(items []utils.TPhotoItem, opts Options) Manifest {
	if opts.Mode == "" {
		opts.Mode = ModeGrid
	}
	if opts.Direction == "" {
		opts.Direction = ordering.Ascending
	}
	cols := columnsFor(opts)
	sorted := ordering.Sort(items, opts.Direction, opts.Setting)
	ordinals := ordering.BuildDayOrdinals(sorted, opts.Setting)

	m := Manifest{
		Mode:      opts.Mode,
		TimeZone:  opts.Setting,
		Direction: opts.Direction,
		Columns:   cols,
		ShowDates: opts.ShowDates,
		Entries:   make([]Entry, 0, len(sorted)),
		Pages:     []Page{},
	}

	for _, item := range sorted {
		entry := Entry{
			ID:            item.ID,
			Name:          item.Name(),
			DateSource:    item.DateSource,
			DateField:     item.EffectiveDateField,
			LowConfidence: dates.IsLowConfidenceSource(item.DateSource),
			DayKey:        ordering.DayKey(item, opts.Setting),
			Ordinal:       ordinals[item.ID],
			Crop:          item.Crop,
			CropMode:      tileMode(item),
			ThumbPath:     item.ThumbPath,
		}
		if entry.DateSource == "" {
			entry.DateSource = utils.DateSourceUnknown
		}
		if !item.EffectiveDate.IsZero() {
			formatted := item.EffectiveDate.UTC().Format(time.RFC3339)
			entry.EffectiveDate = &formatted
		}
		if opts.ShowDates {
			entry.Label = dates.FormatDateLabel(item.EffectiveDate, opts.Setting)
		}
		m.Entries = append(m.Entries, entry)
	}

	perPage := rowsPerPage(opts)
	rows := ordering.ChunkRows(sorted, cols)
	for start := 0; start < len(rows); start += perPage {
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		page := Page{Number: len(m.Pages) + 1, Rows: make([]Row, 0, end-start)}
		for i, row := range rows[start:end] {
			r := Row{Index: start + i, IDs: make([]string, len(row))}
			if opts.Mode == ModeTimeline {
				r.Numeral = ordering.RomanNumeral(start + i + 1)
			}
			for j, item := range row {
				r.IDs[j] = item.ID
			}
			page.Rows = append(page.Rows, r)
		}
		m.Pages = append(m.Pages, page)
	}
	return m
}

/**************************************************************************************************
** FileName returns the name of one exported page, with a -pN suffix when there are several.
** Page 0 names the whole manifest.
**
** @param m - Manifest
** @param page - 1-based page number, or 0
** @param format - File extension, e.g. "png"
** @param at - Export time
** @return string - File name
**************************************************************************************************/
func FileName(m Manifest, page int, format string, at time.Time) string {
	suffix := ""
	if page > 0 && len(m.Pages) > 1 {
		suffix = fmt.Sprintf("-p%d", page)
	}
	return fmt.Sprintf("photo-tiles-%s%s-%s.%s", m.Mode, suffix, at.UTC().Format("2006-01-02-15-04-05"), format)
}

// Write encodes the manifest as indented JSON.
func Write(w io.Writer, m Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("error encoding export manifest: %w", err)
	}
	return nil
}
