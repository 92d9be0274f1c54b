/**************************************************************************************************
** The export command writes the tile layout manifest of the loaded photos.
**************************************************************************************************/

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/majorfi/photo-tiles/pkg/export"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/spf13/cobra"
)

/**************************************************************************************************
** runExport loads the photos given as arguments and writes their manifest. With --output set
** to a directory, the file is named after the mode and the current time.
**
** @param cmd - Cobra command being executed
** @param args - Files and directories
** @return error - Configuration, loading or writing error
**************************************************************************************************/
func runExport(cmd *cobra.Command, args []string) error {
	logger, err := loadEnvWithError()
	if err != nil {
		return err
	}
	if exportMode == "" {
		exportMode = strings.TrimSpace(os.Getenv("EXPORT_MODE"))
	}
	mode, err := export.ParseMode(exportMode)
	if err != nil {
		return err
	}
	logStartupSummary(logger)

	store, err := loadLibrary(commandContext(cmd), logger, args)
	if err != nil {
		return err
	}

	manifest := export.Build(store.Sorted(), export.Options{
		Mode:      mode,
		Columns:   columns,
		ShowDates: showDateLabels,
		Setting:   zoneSetting,
		Direction: sortOrder,
	})

	if outputPath == "" {
		return export.Write(cmd.OutOrStdout(), manifest)
	}

	target := outputPath
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, export.FileName(manifest, 0, "json", time.Now()))
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", target, err)
	}
	defer f.Close()
	if err := export.Write(f, manifest); err != nil {
		return fmt.Errorf("error writing %s: %w", target, err)
	}
	utils.Success(fmt.Sprintf("Exported %d %s on %d %s to %s",
		len(manifest.Entries), plural(len(manifest.Entries), "photo"),
		len(manifest.Pages), plural(len(manifest.Pages), "page"), target))
	return nil
}
