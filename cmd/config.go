/**************************************************************************************************
** Configuration and environment management for the photo-tiles CLI.
** Handles logger configuration, environment variable loading, per-file edit flags and global
** configuration state. Flags always take precedence over environment variables.
**************************************************************************************************/

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/ordering"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Global configuration variables
var timeZone string
var sortDirection string
var rowSize int
var columns int
var showDates string
var thumbDir string
var logLevel string
var exportMode string
var outputPath string
var dumpBags bool
var setDates []string
var useFields []string
var shiftDays []string

// Resolved configuration, filled by loadEnvWithError
var zoneSetting timezone.Setting
var sortOrder ordering.Direction
var showDateLabels bool
var edits fileEdits

/**************************************************************************************************
** fileEdits are the per-file date edits given on the command line, keyed by file name.
**************************************************************************************************/
type fileEdits struct {
	ManualDates map[string]time.Time
	Fields      map[string]string
	Shifts      map[string]int
}

// Len returns the number of edits.
func (e fileEdits) Len() int {
	return len(e.ManualDates) + len(e.Fields) + len(e.Shifts)
}

/**************************************************************************************************
** Configures the logger based on flags and environment variables. The level comes from the
** --log-level flag, then LOG_LEVEL; the format from LOG_FORMAT.
**
** @return *logrus.Logger - Configured logger instance
**************************************************************************************************/
func configureLogger() *logrus.Logger {
	return configureLoggerWithOutput(nil)
}

/**************************************************************************************************
** configureLoggerWithOutput is configureLogger with an explicit output. With a nil output, logs
** go to stdout and, when LOG_FILE is set and writable, to that file as well.
**
** @param output - Destination for log lines, or nil
** @return *logrus.Logger - Configured logger instance
**************************************************************************************************/
func configureLoggerWithOutput(output io.Writer) *logrus.Logger {
	logger := logrus.New()
	if output != nil {
		logger.SetOutput(output)
	}

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level != "" {
		if parsedLevel, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(parsedLevel)
		} else {
			logger.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", level)
			logger.SetLevel(logrus.InfoLevel)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if format := os.Getenv("LOG_FORMAT"); format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			FullTimestamp:    false,
			TimestampFormat:  time.RFC3339,
		})
	}

	if output == nil {
		if logFile := os.Getenv("LOG_FILE"); logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				logger.Warnf("Cannot open LOG_FILE '%s', logging to stdout only: %v", logFile, err)
			} else {
				logger.SetOutput(io.MultiWriter(os.Stdout, f))
			}
		}
	}

	return logger
}

func envInt(name string, target *int, fallback int) error {
	if *target != 0 {
		return nil
	}
	if val := strings.TrimSpace(os.Getenv(name)); val != "" {
		intVal, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, val, err)
		}
		*target = intVal
	}
	if *target == 0 {
		*target = fallback
	}
	return nil
}

/**************************************************************************************************
** Loads environment variables and command-line flags, with flags taking precedence over env
** variables, then parses the per-file edit flags in the resolved time zone.
**
** @return *logrus.Logger - Configured logger
** @return error - The first invalid setting
**************************************************************************************************/
func loadEnvWithError() (*logrus.Logger, error) {
	_ = godotenv.Load()
	logger := configureLogger()

	if timeZone == "" {
		timeZone = os.Getenv("TIME_ZONE")
	}
	setting, err := timezone.ParseSetting(timeZone)
	if err != nil {
		return logger, err
	}
	zoneSetting = setting
	timeZone = string(setting)

	if sortDirection == "" {
		sortDirection = os.Getenv("SORT_DIRECTION")
	}
	direction, err := ordering.ParseDirection(sortDirection)
	if err != nil {
		return logger, err
	}
	sortOrder = direction
	sortDirection = string(direction)

	if err := envInt("ROW_SIZE", &rowSize, ordering.TimelineMaxPerRow); err != nil {
		return logger, err
	}
	if err := envInt("COLUMNS", &columns, utils.DefaultPreviewColumns); err != nil {
		return logger, err
	}

	if showDates == "" {
		showDates = strings.TrimSpace(os.Getenv("SHOW_DATES"))
	}
	showDateLabels = true
	if showDates != "" {
		parsed, err := strconv.ParseBool(showDates)
		if err != nil {
			return logger, fmt.Errorf("invalid SHOW_DATES %q: %w", showDates, err)
		}
		showDateLabels = parsed
	}

	if thumbDir == "" {
		thumbDir = strings.TrimSpace(os.Getenv("THUMB_DIR"))
	}

	parsed, err := parseEdits(setDates, useFields, shiftDays, zoneSetting)
	if err != nil {
		return logger, err
	}
	edits = parsed
	return logger, nil
}

/**************************************************************************************************
** loadEnv is loadEnvWithError for command entry points: configuration errors are fatal.
**************************************************************************************************/
func loadEnv() *logrus.Logger {
	logger, err := loadEnvWithError()
	if err != nil {
		logger.Fatal(err)
	}
	return logger
}

/**************************************************************************************************
** parseEdits reads the repeatable edit flags:
**   --set-date NAME=YYYY-MM-DD[THH:MM]  wall-clock date in the configured zone
**   --use-field NAME=FIELD              candidate field to trust
**   --shift-day NAME=N                  whole days to move the effective date by
**
** @return fileEdits - Edits keyed by file name
** @return error - The first malformed flag
**************************************************************************************************/
func parseEdits(setDateArgs, useFieldArgs, shiftDayArgs []string, setting timezone.Setting) (fileEdits, error) {
	out := fileEdits{
		ManualDates: map[string]time.Time{},
		Fields:      map[string]string{},
		Shifts:      map[string]int{},
	}

	for _, arg := range setDateArgs {
		name, value, ok := utils.SplitKeyValue(arg)
		if !ok {
			return out, fmt.Errorf("invalid --set-date %q (expected NAME=YYYY-MM-DD[THH:MM])", arg)
		}
		datePart, timePart, found := strings.Cut(value, "T")
		if !found {
			datePart, timePart, _ = strings.Cut(value, " ")
		}
		date, ok := dates.ParseLocalDateTime(datePart, timePart, setting)
		if !ok {
			return out, fmt.Errorf("invalid --set-date %q: cannot read %q as a date in %s", arg, value, setting)
		}
		out.ManualDates[name] = date
	}

	for _, arg := range useFieldArgs {
		name, field, ok := utils.SplitKeyValue(arg)
		if !ok {
			return out, fmt.Errorf("invalid --use-field %q (expected NAME=FIELD)", arg)
		}
		if !dates.IsAllowedOverrideField(field) {
			return out, fmt.Errorf("invalid --use-field %q: %s cannot be used as a date source (allowed: %s)", arg, field, strings.Join(utils.AllowedOverrideFields, ", "))
		}
		out.Fields[name] = field
	}

	for _, arg := range shiftDayArgs {
		name, value, ok := utils.SplitKeyValue(arg)
		if !ok {
			return out, fmt.Errorf("invalid --shift-day %q (expected NAME=N)", arg)
		}
		delta, err := strconv.Atoi(strings.TrimPrefix(value, "+"))
		if err != nil {
			return out, fmt.Errorf("invalid --shift-day %q: %w", arg, err)
		}
		out.Shifts[name] = delta
	}

	return out, nil
}

/**************************************************************************************************
** logStartupSummary logs the resolved configuration once, as fields in JSON mode and as a
** single line otherwise.
**
** @param logger - Logger instance for output
**************************************************************************************************/
func logStartupSummary(logger *logrus.Logger) {
	level := logger.GetLevel().String()
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = "text"
	}

	if format == "json" {
		logger.WithFields(logrus.Fields{
			"timeZone":      timeZone,
			"sortDirection": sortDirection,
			"rowSize":       rowSize,
			"columns":       columns,
			"showDates":     showDateLabels,
			"thumbDir":      thumbDir,
			"edits":         edits.Len(),
			"logLevel":      level,
			"logFormat":     format,
		}).Info("Configuration loaded")
		return
	}

	thumbs := thumbDir
	if thumbs == "" {
		thumbs = "off"
	}
	logger.Infof("Starting with config: zone=%s sort=%s row-size=%d columns=%d show-dates=%s thumbs=%s edits=%d level=%s format=%s",
		timeZone, sortDirection, rowSize, columns, utils.BoolToString(showDateLabels), thumbs, edits.Len(), level, format)
}
