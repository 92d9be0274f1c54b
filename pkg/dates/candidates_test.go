package dates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	bag   metadata.Bag
	err   error
	panic bool
}

func (s stubReader) Read(ctx context.Context, head []byte) (metadata.Bag, error) {
	if s.panic {
		panic("decoder exploded")
	}
	if s.bag == nil {
		return metadata.Bag{}, s.err
	}
	return s.bag, s.err
}

type failingSource struct{ *metadata.MemorySource }

func (failingSource) Head(int64) ([]byte, error) { return nil, errors.New("disk on fire") }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func fields(candidates []utils.TDateCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Field)
	}
	return out
}

func fullBag() metadata.Bag {
	return metadata.Bag{
		metadata.NamespaceEXIF: metadata.Tags{
			metadata.TagDateTimeOriginal:   "2024:06:15 10:30:00",
			metadata.TagCreateDate:         "2024:06:15 10:30:01",
			metadata.TagDateTimeDigitized:  "2024:06:15 10:30:02",
			metadata.TagModifyDate:         "2024:07:01 09:00:00",
			metadata.TagDateTime:           "2024:07:01 09:00:00",
			metadata.TagOffsetTimeOriginal: "+08:00",
			metadata.TagOffsetTime:         "+09:00",
		},
		metadata.NamespaceXMP: metadata.Tags{
			"xmp:CreateDate": "2024-06-15T10:30:03+08:00",
		},
		metadata.NamespaceIPTC: metadata.Tags{
			metadata.TagDateCreated: "20240615",
			metadata.TagTimeCreated: "103004+0800",
		},
		metadata.NamespaceQuickTime: metadata.Tags{
			metadata.TagCreateDate:      mustUTC("2024-06-15T02:30:05Z"),
			metadata.TagMediaCreateDate: mustUTC("2024-06-15T02:30:06Z"),
		},
		metadata.NamespaceGPS: metadata.Tags{
			metadata.TagGPSDateStamp: "2024:06:15",
			metadata.TagGPSTimeStamp: []float64{2, 30, 7},
		},
	}
}

func TestCandidatesFullBag(t *testing.T) {
	lastModified := mustUTC("2024-07-02T00:00:00Z")
	list := Candidates(fullBag(), lastModified, timezone.Taipei)

	assert.Equal(t, []string{
		utils.FieldDateTimeOriginal,
		utils.FieldCreateDate,
		utils.FieldDateTimeDigitized,
		utils.FieldXMPCreateDate,
		utils.FieldIPTCDateCreated,
		utils.FieldQuickTimeCreate,
		utils.FieldQuickTimeMediaCreate,
		utils.FieldGPSDateTime,
		utils.FieldModifyDate,
		utils.FieldDateTime,
		utils.FieldFileLastModified,
	}, fields(list))

	expected := map[string]struct {
		parsed     string
		confidence utils.TConfidence
		eligible   bool
	}{
		utils.FieldDateTimeOriginal:     {"2024-06-15T02:30:00Z", utils.ConfidenceHigh, true},
		utils.FieldCreateDate:           {"2024-06-15T01:30:01Z", utils.ConfidenceMedium, true},
		utils.FieldDateTimeDigitized:    {"2024-06-15T01:30:02Z", utils.ConfidenceMedium, true},
		utils.FieldXMPCreateDate:        {"2024-06-15T02:30:03Z", utils.ConfidenceMedium, true},
		utils.FieldIPTCDateCreated:      {"2024-06-15T02:30:04Z", utils.ConfidenceMedium, true},
		utils.FieldQuickTimeCreate:      {"2024-06-15T02:30:05Z", utils.ConfidenceMedium, true},
		utils.FieldQuickTimeMediaCreate: {"2024-06-15T02:30:06Z", utils.ConfidenceMedium, true},
		utils.FieldGPSDateTime:          {"2024-06-15T02:30:07Z", utils.ConfidenceMedium, true},
		utils.FieldModifyDate:           {"2024-07-01T00:00:00Z", utils.ConfidenceHint, false},
		utils.FieldDateTime:             {"2024-07-01T00:00:00Z", utils.ConfidenceHint, false},
		utils.FieldFileLastModified:     {"2024-07-02T00:00:00Z", utils.ConfidenceLow, true},
	}

	for _, c := range list {
		want := expected[c.Field]
		assert.True(t, mustUTC(want.parsed).Equal(c.Parsed), "%s: got %s", c.Field, c.Parsed)
		assert.Equal(t, want.confidence, c.Confidence, c.Field)
		assert.Equal(t, want.eligible, c.UsedForEffectiveDate, c.Field)
		assert.NotEmpty(t, c.Raw, c.Field)
	}

	iptc, _ := (utils.TPhotoItem{DateCandidates: list}).Candidate(utils.FieldIPTCDateCreated)
	assert.Equal(t, "20240615 103004+0800", iptc.Raw)
	gps, _ := (utils.TPhotoItem{DateCandidates: list}).Candidate(utils.FieldGPSDateTime)
	assert.Equal(t, "2024:06:15 [2,30,7]", gps.Raw)
	lm, _ := (utils.TPhotoItem{DateCandidates: list}).Candidate(utils.FieldFileLastModified)
	assert.Equal(t, "1719878400000", lm.Raw)
}

func TestCandidatesTaipeiWallClock(t *testing.T) {
	bag := metadata.Bag{metadata.NamespaceEXIF: metadata.Tags{metadata.TagDateTimeOriginal: "2024:06:15 10:30:00"}}
	list := Candidates(bag, time.Time{}, timezone.Taipei)

	require.Len(t, list, 1)
	assert.Equal(t, utils.FieldDateTimeOriginal, list[0].Field)
	assert.True(t, mustUTC("2024-06-15T02:30:00Z").Equal(list[0].Parsed))
}

func TestCandidatesOffsetFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		exif     metadata.Tags
		field    string
		expected string
	}{
		{
			name:     "original falls back to offset time",
			exif:     metadata.Tags{metadata.TagDateTimeOriginal: "2024:06:15 10:30:00", metadata.TagOffsetTime: "+08:00"},
			field:    utils.FieldDateTimeOriginal,
			expected: "2024-06-15T02:30:00Z",
		},
		{
			name:     "numeric time zone offset",
			exif:     metadata.Tags{metadata.TagDateTimeOriginal: "2024:06:15 10:30:00", metadata.TagTimeZoneOffset: []int{-5}},
			field:    utils.FieldDateTimeOriginal,
			expected: "2024-06-15T15:30:00Z",
		},
		{
			name:     "create date prefers digitized offset",
			exif:     metadata.Tags{metadata.TagCreateDate: "2024:06:15 10:30:00", metadata.TagOffsetTimeDigitized: "+02:00", metadata.TagOffsetTime: "+08:00"},
			field:    utils.FieldCreateDate,
			expected: "2024-06-15T08:30:00Z",
		},
		{
			name:     "create date uses original offset as last resort",
			exif:     metadata.Tags{metadata.TagCreateDate: "2024:06:15 10:30:00", metadata.TagOffsetTimeOriginal: "+08:00"},
			field:    utils.FieldCreateDate,
			expected: "2024-06-15T02:30:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Candidates(metadata.Bag{metadata.NamespaceEXIF: tt.exif}, time.Time{}, "UTC")
			c, ok := (utils.TPhotoItem{DateCandidates: list}).Candidate(tt.field)
			require.True(t, ok)
			assert.True(t, mustUTC(tt.expected).Equal(c.Parsed), "got %s", c.Parsed)
		})
	}
}

func TestCandidatesDropsEmptyAndKeepsUnparsed(t *testing.T) {
	bag := metadata.Bag{
		metadata.NamespaceEXIF: metadata.Tags{metadata.TagDateTimeOriginal: "garbage"},
		metadata.NamespaceGPS:  metadata.Tags{metadata.TagGPSDateStamp: "2024:06:15"},
	}
	list := Candidates(bag, time.Time{}, timezone.Taipei)

	require.Equal(t, []string{utils.FieldDateTimeOriginal}, fields(list))
	assert.Equal(t, "garbage", list[0].Raw)
	assert.False(t, list[0].HasParsed())
}

func TestCandidatesXMPLookup(t *testing.T) {
	bag := metadata.Bag{metadata.NamespaceXMP: metadata.Tags{
		"photoshop:DateCreated": "2020-01-01",
		"exif:CreateDate":       "2024-06-15T10:30:00+08:00",
	}}
	list := Candidates(bag, time.Time{}, "UTC")
	c, ok := (utils.TPhotoItem{DateCandidates: list}).Candidate(utils.FieldXMPCreateDate)
	require.True(t, ok)
	assert.Equal(t, "2024-06-15T10:30:00+08:00", c.Raw)

	bag[metadata.NamespaceXMP][metadata.TagCreateDate] = "2023-01-01T00:00:00Z"
	list = Candidates(bag, time.Time{}, "UTC")
	c, _ = (utils.TPhotoItem{DateCandidates: list}).Candidate(utils.FieldXMPCreateDate)
	assert.Equal(t, "2023-01-01T00:00:00Z", c.Raw, "exact key wins")
}

func TestExtractForSource(t *testing.T) {
	modTime := mustUTC("2024-06-20T08:00:00Z")
	src := metadata.NewMemorySource("IMG_0001.JPG", []byte("bytes"), modTime)
	logger := quietLogger()

	tests := []struct {
		name   string
		reader metadata.Reader
		src    utils.TFileSource
		want   []string
	}{
		{
			name:   "decoded metadata",
			reader: stubReader{bag: fullBag()},
			src:    src,
			want:   fields(Candidates(fullBag(), modTime, timezone.Taipei)),
		},
		{
			name:   "reader error",
			reader: stubReader{err: metadata.ErrNoMetadata},
			src:    src,
			want:   []string{utils.FieldFileLastModified},
		},
		{
			name:   "reader panic",
			reader: stubReader{panic: true},
			src:    src,
			want:   []string{utils.FieldFileLastModified},
		},
		{
			name:   "head read failure",
			reader: stubReader{bag: fullBag()},
			src:    failingSource{src},
			want:   []string{utils.FieldFileLastModified},
		},
		{
			name:   "partial decode keeps what was read",
			reader: stubReader{bag: metadata.Bag{metadata.NamespaceEXIF: metadata.Tags{metadata.TagDateTimeOriginal: "2024:06:15 10:30:00"}}, err: errors.New("xmp broken")},
			src:    src,
			want:   []string{utils.FieldDateTimeOriginal, utils.FieldFileLastModified},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractForSource(context.Background(), tt.reader, tt.src, timezone.Taipei, logger)
			assert.Equal(t, tt.want, fields(got))
		})
	}

	t.Run("no modification time and no metadata", func(t *testing.T) {
		bare := metadata.NewMemorySource("x.png", nil, time.Time{})
		got := ExtractForSource(context.Background(), stubReader{err: metadata.ErrNoMetadata}, bare, timezone.Taipei, nil)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestLastModifiedCandidate(t *testing.T) {
	c := LastModifiedCandidate(mustUTC("2024-06-15T02:30:00Z"))
	assert.Equal(t, utils.FieldFileLastModified, c.Field)
	assert.Equal(t, utils.ConfidenceLow, c.Confidence)
	assert.True(t, c.UsedForEffectiveDate)
	assert.Equal(t, "1718418600000", c.Raw)

	empty := LastModifiedCandidate(time.Time{})
	assert.Empty(t, empty.Raw)
	assert.False(t, empty.HasParsed())
}
