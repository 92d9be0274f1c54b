/**************************************************************************************************
** Shared pipeline of the photo-tiles commands: collect files, import them into a store, wait
** for background processing and apply the user's per-file edits.
**************************************************************************************************/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/maruel/natural"
	"github.com/majorfi/photo-tiles/pkg/library"
	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/thumbs"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var supportedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp",
	".heic", ".heif", ".avif", ".mp4", ".mov", ".m4v",
}

// isSupportedFile reports whether a file name looks like a photo or video we can date.
func isSupportedFile(name string) bool {
	return utils.Contains(supportedExtensions, strings.ToLower(filepath.Ext(name)))
}

/**************************************************************************************************
** collectSources expands the command arguments into file sources. Directories are read one
** level deep, keeping supported files in natural name order; files named explicitly are always
** kept, in argument order. Empty arguments are ignored.
**
** @param paths - Files and directories
** @return []utils.TFileSource - Sources in import order
** @return error - Any error while reading the arguments
**************************************************************************************************/
func collectSources(paths []string) ([]utils.TFileSource, error) {
	var sources []utils.TFileSource
	for _, path := range utils.RemoveEmptyStrings(paths) {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		if !info.IsDir() {
			f, err := metadata.OpenFile(path)
			if err != nil {
				return nil, err
			}
			sources = append(sources, f)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("error listing %s: %w", path, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Type().IsRegular() && isSupportedFile(entry.Name()) {
				names = append(names, entry.Name())
			}
		}
		sort.Sort(natural.StringSlice(names))
		for _, name := range names {
			f, err := metadata.OpenFile(filepath.Join(path, name))
			if err != nil {
				return nil, err
			}
			sources = append(sources, f)
		}
	}
	return sources, nil
}

/**************************************************************************************************
** newStore builds a store from the resolved configuration. Thumbnails are only rendered when
** THUMB_DIR is set.
**************************************************************************************************/
func newStore(ctx context.Context, logger *logrus.Logger) *library.Store {
	opts := library.Options{
		Setting:     zoneSetting,
		Direction:   sortOrder,
		CropInferer: thumbs.CenterCropper{},
		Logger:      logger,
	}
	if thumbDir != "" {
		opts.Thumbnailer = thumbs.NewWriter(thumbDir)
	}
	return library.NewStore(ctx, opts)
}

/**************************************************************************************************
** loadLibrary imports every source and waits for processing, stopping early on SIGINT or
** SIGTERM. Edits are applied once every item has its candidates.
**
** @param ctx - Parent context
** @param logger - Logger instance for output
** @param paths - Command arguments
** @return *library.Store - Fully processed store
** @return error - Any error while collecting files, or the interrupting signal
**************************************************************************************************/
func loadLibrary(ctx context.Context, logger *logrus.Logger, paths []string) (*library.Store, error) {
	sources, err := collectSources(paths)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no supported files found in %s", strings.Join(paths, ", "))
	}

	storeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	store := newStore(storeCtx, logger)

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		store.Import(sources...)
		store.Wait()
		return nil
	})
	g.Go(func() error {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case <-done:
			return nil
		case <-gctx.Done():
			cancel()
			return gctx.Err()
		case sig := <-signals:
			cancel()
			return fmt.Errorf("interrupted by %s", sig)
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applyEdits(store, edits, logger)
	summarizeLibrary(store)
	return store, nil
}

/**************************************************************************************************
** summarizeLibrary prints how many photos were loaded and where their dates came from, with a
** warning for photos dated from their file only and for missing thumbnails.
**
** @param store - Processed store
**************************************************************************************************/
func summarizeLibrary(store *library.Store) {
	items := store.Items()
	bySource := make(map[utils.TDateSource]int)
	missingThumbs := 0
	var size int64
	for _, item := range items {
		bySource[item.DateSource]++
		if item.Source != nil {
			size += item.Source.Size()
		}
		if thumbDir != "" && item.ThumbPath == "" {
			missingThumbs++
		}
	}

	utils.Info(fmt.Sprintf("Loaded %d %s (%s): %d from EXIF, %d manual, %d from file dates",
		len(items), plural(len(items), "photo"), humanize.Bytes(uint64(size)),
		bySource[utils.DateSourceExif], bySource[utils.DateSourceManual], bySource[utils.DateSourceFile]))
	if n := bySource[utils.DateSourceFile] + bySource[utils.DateSourceUnknown]; n > 0 {
		utils.Warning(fmt.Sprintf("%d %s without a capture date, check them with inspect", n, plural(n, "photo")))
	}
	if missingThumbs > 0 {
		utils.Warning(fmt.Sprintf("%d %s could not be rendered to %s", missingThumbs, plural(missingThumbs, "thumbnail"), thumbDir))
	}
}

/**************************************************************************************************
** applyEdits applies the command-line edits by file name. An override field is applied first,
** then a manual date, then a day shift, so "--use-field a=X --shift-day a=1" shifts the date
** read from X.
**
** @param store - Processed store
** @param e - Edits keyed by file name
** @param logger - Logger instance for output
**************************************************************************************************/
func applyEdits(store *library.Store, e fileEdits, logger *logrus.Logger) {
	if e.Len() == 0 {
		return
	}
	byName := make(map[string][]string)
	for _, item := range store.Items() {
		byName[item.Name()] = append(byName[item.Name()], item.ID)
	}
	lookup := func(flag, name string) []string {
		ids := byName[name]
		if len(ids) == 0 {
			utils.Warning(fmt.Sprintf("%s: no imported file named %s", flag, name))
		}
		return ids
	}

	for name, field := range e.Fields {
		for _, id := range lookup("--use-field", name) {
			store.SetDateOverrideField(id, field)
		}
	}
	for name, date := range e.ManualDates {
		for _, id := range lookup("--set-date", name) {
			store.SetManualDate(id, date)
		}
	}
	for name, delta := range e.Shifts {
		for _, id := range lookup("--shift-day", name) {
			if !store.ShiftCalendarDay(id, delta) {
				utils.Warning(fmt.Sprintf("--shift-day: %s has no date that can be shifted", name))
			}
		}
	}
	logger.Debugf("Applied %d edits", e.Len())
}
