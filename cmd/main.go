/**************************************************************************************************
** Main entry point for the photo-tiles CLI. This tool works out the effective capture date of
** every photo in a batch, orders them by day and lays them out as tiles.
**************************************************************************************************/

package main

import (
	"os"
	"strings"

	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/spf13/cobra"
)

/**************************************************************************************************
** Application entry point. Sets up the CLI command structure using Cobra and handles command
** execution and error reporting.
**************************************************************************************************/
func main() {
	utils.Output = os.Stderr
	if err := CreateRootCommand().Execute(); err != nil {
		utils.Error(err)
		os.Exit(1)
	}
}

/**************************************************************************************************
** CreateRootCommand builds the root command with all its subcommands. Running the root command
** without a subcommand prints the timeline.
**
** @return *cobra.Command - Root command
**************************************************************************************************/
func CreateRootCommand() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "photo-tiles [files or directories...]",
		Short: "Photo Tiles CLI",
		Long:  "A tool to date, order and lay out photos as square tiles.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTimeline,

		SilenceErrors: true,
	}

	var timelineCmd = &cobra.Command{
		Use:   "timeline [files or directories...]",
		Short: "Print photos grouped by day",
		Long:  "Resolve the effective date of every photo and print them grouped by calendar day, in rows.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTimeline,
	}

	var inspectCmd = &cobra.Command{
		Use:   "inspect [files or directories...]",
		Short: "Explain the date of every photo",
		Long:  "List every date candidate of every photo, which one was selected and why.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().BoolVar(&dumpBags, "dump", false, "Dump the full items, candidates included")

	var exportCmd = &cobra.Command{
		Use:   "export [files or directories...]",
		Short: "Write a tile layout manifest",
		Long:  "Resolve, order and paginate the photos and write the layout as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportMode, "mode", "", "Layout mode: grid or timeline (or set EXPORT_MODE env var)")
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file or directory, stdout when empty")

	bindFlags(rootCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(exportCmd)
	return rootCmd
}

/**************************************************************************************************
** bindFlags registers the persistent flags shared by every command.
**
** @param rootCmd - Root command
**************************************************************************************************/
func bindFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&timeZone, "time-zone", "", "Display zone: browser (system zone) or an IANA name (or set TIME_ZONE env var)")
	rootCmd.PersistentFlags().StringVar(&sortDirection, "sort", "", "Day order: asc or desc (or set SORT_DIRECTION env var)")
	rootCmd.PersistentFlags().IntVar(&rowSize, "row-size", 0, "Photos per timeline row (or set ROW_SIZE env var)")
	rootCmd.PersistentFlags().IntVar(&columns, "columns", 0, "Grid columns, clamped to 2..6 (or set COLUMNS env var)")
	rootCmd.PersistentFlags().StringVar(&showDates, "show-dates", "", "Show date labels (or set SHOW_DATES=true)")
	rootCmd.PersistentFlags().StringVar(&thumbDir, "thumb-dir", "", "Directory for rendered thumbnails (or set THUMB_DIR env var)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (or set LOG_LEVEL env var)")
	rootCmd.PersistentFlags().StringArrayVar(&setDates, "set-date", nil, "Manual date, NAME=YYYY-MM-DD[THH:MM], repeatable")
	rootCmd.PersistentFlags().StringArrayVar(&useFields, "use-field", nil, "Trusted date field, NAME=FIELD (one of "+strings.Join(utils.AllowedOverrideFields, ", ")+"), repeatable")
	rootCmd.PersistentFlags().StringArrayVar(&shiftDays, "shift-day", nil, "Move a date by whole days, NAME=N, repeatable")
}
