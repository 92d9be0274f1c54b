/**************************************************************************************************
** The timeline command prints the ordered photos grouped by calendar day, in tile rows.
**************************************************************************************************/

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/ordering"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/spf13/cobra"
)

// commandContext returns the command context, or a background context outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

/**************************************************************************************************
** runTimeline loads the photos given as arguments and prints their timeline.
**
** @param cmd - Cobra command being executed
** @param args - Files and directories
** @return error - Configuration or loading error
**************************************************************************************************/
func runTimeline(cmd *cobra.Command, args []string) error {
	logger, err := loadEnvWithError()
	if err != nil {
		return err
	}
	logStartupSummary(logger)

	store, err := loadLibrary(commandContext(cmd), logger, args)
	if err != nil {
		return err
	}
	printTimeline(cmd.OutOrStdout(), store.Sorted(), zoneSetting, rowSize, showDateLabels)
	logger.Infof("✅ %d photos on the timeline", store.Len())
	return nil
}

// clockLabel renders the zone-local time of day of an instant.
func clockLabel(item utils.TPhotoItem, setting timezone.Setting) string {
	if item.EffectiveDate.IsZero() {
		return "--:--"
	}
	loc, ok := setting.Location()
	if !ok {
		return "--:--"
	}
	return item.EffectiveDate.In(loc).Format("15:04")
}

/**************************************************************************************************
** printTimeline writes one block per day: a header with the day label and count, then the rows
** numbered with Roman numerals. Low-confidence dates are flagged.
**
** @param w - Destination
** @param sorted - Items in display order
** @param setting - Zone for day grouping and labels
** @param perRow - Tiles per row
** @param showLabels - Whether to print day labels, or only the day number
**************************************************************************************************/
func printTimeline(w io.Writer, sorted []utils.TPhotoItem, setting timezone.Setting, perRow int, showLabels bool) {
	for dayIndex, group := range ordering.GroupByDay(sorted, setting) {
		label := fmt.Sprintf("Day %d", dayIndex+1)
		if showLabels {
			label = dates.FormatDateLabel(group.Items[0].EffectiveDate, setting)
		}
		fmt.Fprintf(w, "📅 %s (%d %s)\n", label, len(group.Items), plural(len(group.Items), "photo"))

		for rowIndex, row := range ordering.ChunkRows(group.Items, perRow) {
			fmt.Fprintf(w, "  %s\n", ordering.RomanNumeral(rowIndex+1))
			for _, item := range row {
				warning := ""
				if dates.IsLowConfidenceSource(item.DateSource) {
					warning = " ⚠️"
				}
				size := ""
				if item.Source != nil {
					size = humanize.Bytes(uint64(item.Source.Size()))
				}
				fmt.Fprintf(w, "    %s  %s  %s  %s%s\n", clockLabel(item, setting), item.Name(), utils.SourceLabel(item.DateSource), size, warning)
			}
		}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
