// Package dates derives the effective capture date of a photo: it extracts dated candidates
// from metadata, selects one by fixed precedence and demotes batch-wide artifacts.
package dates

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
)

func newCandidate(field string, raw any, parsed time.Time, ok bool, confidence utils.TConfidence, eligible bool) utils.TDateCandidate {
	c := utils.TDateCandidate{
		Field:                field,
		Raw:                  rawString(raw),
		Confidence:           confidence,
		UsedForEffectiveDate: eligible,
	}
	if ok {
		c.Parsed = parsed
	}
	return c
}

/**************************************************************************************************
** LastModifiedCandidate builds the always-present, low-confidence candidate from a file's own
** last-modified time. Its raw value is the epoch in milliseconds.
**
** @param lastModified - File last-modified instant, zero if unknown
** @return utils.TDateCandidate - The "file.lastModified" candidate
**************************************************************************************************/
func LastModifiedCandidate(lastModified time.Time) utils.TDateCandidate {
	c := utils.TDateCandidate{
		Field:                utils.FieldFileLastModified,
		Confidence:           utils.ConfidenceLow,
		UsedForEffectiveDate: true,
	}
	if !lastModified.IsZero() {
		c.Raw = strconv.FormatInt(lastModified.UnixMilli(), 10)
		c.Parsed = lastModified
	}
	return c
}

/**************************************************************************************************
** findXMPCreateDate looks up "CreateDate", then any property whose name ends in "createdate"
** (e.g. "xmp:CreateDate"), in a stable order.
**************************************************************************************************/
func findXMPCreateDate(bag metadata.Bag) any {
	if value, ok := bag.Get(metadata.NamespaceXMP, metadata.TagCreateDate); ok {
		return value
	}
	keys := bag.Keys(metadata.NamespaceXMP)
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasSuffix(strings.ToLower(key), "createdate") {
			return bag.Value(metadata.NamespaceXMP, key)
		}
	}
	return nil
}

// firstPresent returns the first value present in the EXIF namespace, in key order.
func firstPresent(bag metadata.Bag, keys ...string) any {
	for _, key := range keys {
		if value, ok := bag.Get(metadata.NamespaceEXIF, key); ok && value != nil {
			return value
		}
	}
	return nil
}

/**************************************************************************************************
** Candidates turns a decoded metadata bag into the ordered candidate list of one photo.
**
** Confidence tiers are fixed per field: DateTimeOriginal is high, other capture fields are
** medium, modify-time fields are ineligible hints and the file's own last-modified time is low.
** Entries with neither a raw value nor a parsed instant are dropped; file.lastModified is kept
** whenever the file has a modification time.
**
** @param bag - Decoded metadata, may be nil
** @param lastModified - File last-modified instant
** @param setting - Zone for wall-clock values
** @return []utils.TDateCandidate - Candidates in extraction order
**************************************************************************************************/
func Candidates(bag metadata.Bag, lastModified time.Time, setting timezone.Setting) []utils.TDateCandidate {
	exifOffset := firstPresent(bag, metadata.TagOffsetTimeOriginal, metadata.TagOffsetTime, metadata.TagTimeZoneOffset)
	originalOffset := firstPresent(bag, metadata.TagOffsetTimeOriginal)
	if originalOffset == nil {
		originalOffset = exifOffset
	}
	digitizedOffset := firstPresent(bag, metadata.TagOffsetTimeDigitized, metadata.TagOffsetTime)
	if digitizedOffset == nil {
		digitizedOffset = exifOffset
	}
	modifyOffset := firstPresent(bag, metadata.TagOffsetTime)
	if modifyOffset == nil {
		modifyOffset = exifOffset
	}

	exifField := func(field, key string, offset any, confidence utils.TConfidence, eligible bool) utils.TDateCandidate {
		raw := bag.Value(metadata.NamespaceEXIF, key)
		parsed, ok := parseWithOffset(raw, offset, setting)
		return newCandidate(field, raw, parsed, ok, confidence, eligible)
	}
	plainField := func(field string, raw any) utils.TDateCandidate {
		parsed, ok := parseValue(raw, setting)
		return newCandidate(field, raw, parsed, ok, utils.ConfidenceMedium, true)
	}

	list := []utils.TDateCandidate{
		exifField(utils.FieldDateTimeOriginal, metadata.TagDateTimeOriginal, originalOffset, utils.ConfidenceHigh, true),
		exifField(utils.FieldCreateDate, metadata.TagCreateDate, digitizedOffset, utils.ConfidenceMedium, true),
		exifField(utils.FieldDateTimeDigitized, metadata.TagDateTimeDigitized, digitizedOffset, utils.ConfidenceMedium, true),
		plainField(utils.FieldXMPCreateDate, findXMPCreateDate(bag)),
		iptcCandidate(bag, setting),
		plainField(utils.FieldQuickTimeCreate, bag.Value(metadata.NamespaceQuickTime, metadata.TagCreateDate)),
		plainField(utils.FieldQuickTimeMediaCreate, bag.Value(metadata.NamespaceQuickTime, metadata.TagMediaCreateDate)),
		gpsCandidate(bag),
		exifField(utils.FieldModifyDate, metadata.TagModifyDate, modifyOffset, utils.ConfidenceHint, false),
		exifField(utils.FieldDateTime, metadata.TagDateTime, modifyOffset, utils.ConfidenceHint, false),
		LastModifiedCandidate(lastModified),
	}

	out := list[:0]
	for _, c := range list {
		if c.Raw != "" || c.HasParsed() {
			out = append(out, c)
		}
	}
	return out
}

func iptcCandidate(bag metadata.Bag, setting timezone.Setting) utils.TDateCandidate {
	date := bag.Value(metadata.NamespaceIPTC, metadata.TagDateCreated)
	clock := bag.Value(metadata.NamespaceIPTC, metadata.TagTimeCreated)
	if date == nil {
		return newCandidate(utils.FieldIPTCDateCreated, nil, time.Time{}, false, utils.ConfidenceMedium, true)
	}

	raw := date
	if clock != nil {
		raw = rawString(date) + " " + rawString(clock)
	}

	dateStr, dateIsString := date.(string)
	clockStr, clockIsString := clock.(string)
	var parsed time.Time
	var ok bool
	switch {
	case dateIsString && clockIsString:
		parsed, ok = ParseDateString(normalizeIPTCDate(dateStr)+"T"+normalizeIPTCTime(clockStr), setting)
	case dateIsString:
		parsed, ok = ParseDateString(normalizeIPTCDate(dateStr), setting)
	default:
		parsed, ok = parseValue(date, setting)
	}
	return newCandidate(utils.FieldIPTCDateCreated, raw, parsed, ok, utils.ConfidenceMedium, true)
}

func gpsCandidate(bag metadata.Bag) utils.TDateCandidate {
	date := bag.Value(metadata.NamespaceGPS, metadata.TagGPSDateStamp)
	clock := bag.Value(metadata.NamespaceGPS, metadata.TagGPSTimeStamp)
	parsed, ok := gpsUTC(date, clock)
	var raw any
	if date != nil && clock != nil {
		raw = rawString(date) + " " + rawString(clock)
	}
	return newCandidate(utils.FieldGPSDateTime, raw, parsed, ok, utils.ConfidenceMedium, true)
}

/**************************************************************************************************
** ExtractForSource reads the head of a file, decodes it and returns its candidates. It never
** fails: any read, decode or panic problem yields the file.lastModified candidate alone.
**
** @param ctx - Context passed to the reader
** @param reader - Metadata reader
** @param src - File to read
** @param setting - Zone for wall-clock values
** @param logger - Logger for diagnostics
** @return []utils.TDateCandidate - Candidates, never empty when the file has a modification time
**************************************************************************************************/
func ExtractForSource(ctx context.Context, reader metadata.Reader, src utils.TFileSource, setting timezone.Setting, logger *logrus.Logger) (candidates []utils.TDateCandidate) {
	lastModified := src.LastModified()
	fallback := func() []utils.TDateCandidate {
		c := LastModifiedCandidate(lastModified)
		if c.Raw == "" && !c.HasParsed() {
			return []utils.TDateCandidate{}
		}
		return []utils.TDateCandidate{c}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	log := logger.WithField("file", src.Name())

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("error", fmt.Sprint(rec)).Warn("Metadata extraction panicked, using last-modified time")
			candidates = fallback()
		}
	}()

	head, err := src.Head(metadata.HeadSize)
	if err != nil {
		log.WithError(err).Debug("Could not read file head")
		return fallback()
	}

	bag, err := reader.Read(ctx, head)
	if err != nil && bag.Len() == 0 {
		log.WithError(err).Debug("No readable metadata")
		return fallback()
	}

	return Candidates(bag, lastModified, setting)
}
