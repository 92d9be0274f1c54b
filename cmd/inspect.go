/**************************************************************************************************
** The inspect command explains, photo by photo, every date candidate and the selection.
**************************************************************************************************/

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

/**************************************************************************************************
** runInspect loads the photos given as arguments and explains their dates, followed by the
** batch heuristics report.
**
** @param cmd - Cobra command being executed
** @param args - Files and directories
** @return error - Configuration or loading error
**************************************************************************************************/
func runInspect(cmd *cobra.Command, args []string) error {
	logger, err := loadEnvWithError()
	if err != nil {
		return err
	}
	logStartupSummary(logger)

	ctx := commandContext(cmd)
	store, err := loadLibrary(ctx, logger, args)
	if err != nil {
		return err
	}

	reader := metadata.NewReader(logger)
	w := cmd.OutOrStdout()
	now := time.Now()
	for _, item := range store.Sorted() {
		printInspection(w, item, zoneSetting, now)
		if hint, ok := zoneHintFor(ctx, reader, item, logger); ok && hint != string(zoneSetting) {
			fmt.Fprintf(w, "  🌍 GPS position is in %s\n", hint)
		}
		if dumpBags {
			utils.Pretty(item)
		}
	}

	report := store.Report()
	logger.WithFields(logrus.Fields{
		"items":                   report.Items,
		"dominantImportDay":       report.DominantImportDay,
		"dominantLastModifiedDay": report.DominantLastModifiedDay,
		"lastModifiedCoincides":   report.LastModifiedCoincides,
		"clusteredFields":         strings.Join(report.ClusteredFields, ","),
	}).Info("📊 Batch heuristics")
	for reason, count := range report.Demotions {
		logger.Infof("⬇️ %d candidates demoted (%s)", count, reason)
	}
	return nil
}

// zoneHintFor re-reads the item's metadata for its GPS zone.
func zoneHintFor(ctx context.Context, reader metadata.Reader, item utils.TPhotoItem, logger *logrus.Logger) (string, bool) {
	if item.Source == nil {
		return "", false
	}
	head, err := item.Source.Head(metadata.HeadSize)
	if err != nil {
		logger.Debugf("Cannot re-read %s: %v", item.Name(), err)
		return "", false
	}
	bag, err := reader.Read(ctx, head)
	if err != nil {
		return "", false
	}
	return metadata.ZoneHint(bag)
}

/**************************************************************************************************
** printInspection writes the selection and the candidate list of one item.
**
** @param w - Destination
** @param item - Resolved item
** @param setting - Zone used for display
** @param now - Reference instant for relative dates
**************************************************************************************************/
func printInspection(w io.Writer, item utils.TPhotoItem, setting timezone.Setting, now time.Time) {
	loc, ok := setting.Location()
	if !ok {
		loc = time.UTC
	}

	fmt.Fprintf(w, "📷 %s\n", item.Name())
	explanation := dates.Describe(item)
	if item.EffectiveDate.IsZero() {
		fmt.Fprintf(w, "  date: %s (%s)\n", dates.UnknownDateLabel, explanation.Reason)
	} else {
		fmt.Fprintf(w, "  date: %s, %s [%s] (%s)\n",
			item.EffectiveDate.In(loc).Format("2006-01-02 15:04:05 MST"),
			humanize.RelTime(item.EffectiveDate, now, "ago", "from now"),
			utils.SourceLabel(item.DateSource),
			explanation.Reason)
	}

	if item.DateCandidates == nil {
		fmt.Fprintln(w, "  candidates: pending")
		return
	}
	for _, c := range item.DateCandidates {
		marker := " "
		if item.EffectiveDateField != "" && c.Field == item.EffectiveDateField {
			marker = "*"
		}
		value := "unreadable"
		if c.HasParsed() {
			value = c.Parsed.In(loc).Format("2006-01-02 15:04:05")
		}
		eligibility := ""
		if !c.UsedForEffectiveDate {
			eligibility = " (not used)"
		}
		fmt.Fprintf(w, "  %s %-32s %-19s %s%s\n", marker, c.Field, value, utils.ConfidenceLabel(c.Confidence), eligibility)
	}

	if fields := dates.DetectOffByOneDay(item, setting); len(fields) > 0 {
		fmt.Fprintf(w, "  ⚠️ one day off: %s\n", strings.Join(fields, ", "))
	}
}
