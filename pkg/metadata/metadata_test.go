package metadata

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func sampleTIFF() []byte {
	return buildTIFF(
		[]testTag{asciiTag(0x0132, "2024:07:01 08:00:00")},
		[]testTag{
			asciiTag(0x9003, "2024:06:15 10:30:00"),
			asciiTag(0x9004, "2024:06:15 10:30:05"),
			asciiTag(0x9010, "+08:00"),
			asciiTag(0x9011, "+08:00"),
			sshortTag(0x882a, 8),
		},
		[]testTag{
			asciiTag(0x001D, "2024:06:15"),
			rationalTag(0x0007, 2, 30, 0),
		},
	)
}

func TestBag(t *testing.T) {
	var empty Bag
	_, ok := empty.Get(NamespaceEXIF, TagDateTimeOriginal)
	assert.False(t, ok, "nil bag behaves like an empty one")

	bag := make(Bag)
	bag.Set(NamespaceEXIF, TagDateTimeOriginal, "2024:06:15 10:30:00")
	bag.Set(NamespaceEXIF, TagCreateDate, nil)
	assert.Equal(t, 1, bag.Len())
	assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal))

	other := Bag{
		NamespaceEXIF: Tags{TagDateTimeOriginal: "ignored", TagModifyDate: "2024:07:01 08:00:00"},
		NamespaceGPS:  Tags{TagGPSDateStamp: "2024:06:15"},
	}
	bag.Merge(other)
	assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal), "existing tags win")
	assert.Equal(t, 3, bag.Len())
	assert.Equal(t, []string{TagDateTimeOriginal, TagModifyDate}, bag.Keys(NamespaceEXIF))
}

func TestDecodeEXIF(t *testing.T) {
	tests := []struct {
		name string
		head []byte
	}{
		{name: "raw tiff", head: sampleTIFF()},
		{name: "jpeg app1", head: jpeg(exifSegment(sampleTIFF()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := make(Bag)
			require.NoError(t, decodeEXIF(tt.head, bag))

			assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal))
			assert.Equal(t, "2024:06:15 10:30:05", bag.Value(NamespaceEXIF, TagCreateDate))
			assert.Equal(t, "2024:07:01 08:00:00", bag.Value(NamespaceEXIF, TagModifyDate))
			assert.Equal(t, "+08:00", bag.Value(NamespaceEXIF, TagOffsetTime))
			assert.Equal(t, "+08:00", bag.Value(NamespaceEXIF, TagOffsetTimeOriginal))
			assert.Equal(t, []int{8}, bag.Value(NamespaceEXIF, TagTimeZoneOffset))
			assert.Equal(t, "2024:06:15", bag.Value(NamespaceGPS, TagGPSDateStamp))
			assert.Equal(t, []float64{2, 30, 0}, bag.Value(NamespaceGPS, TagGPSTimeStamp))
		})
	}

	t.Run("not an image", func(t *testing.T) {
		assert.Error(t, decodeEXIF([]byte("hello world, not exif"), make(Bag)))
	})
}

func TestDecodeIPTC(t *testing.T) {
	bag := make(Bag)
	head := jpeg(iptcSegment(
		iimDataset(1, 90, "\x1b%G"),
		iimDataset(2, 5, "Title"),
		iimDataset(2, 55, "20240615"),
		iimDataset(2, 60, "103000+0800"),
	))
	require.NoError(t, decodeIPTC(head, bag))
	assert.Equal(t, "20240615", bag.Value(NamespaceIPTC, TagDateCreated))
	assert.Equal(t, "103000+0800", bag.Value(NamespaceIPTC, TagTimeCreated))

	t.Run("non jpeg is ignored", func(t *testing.T) {
		bag := make(Bag)
		assert.NoError(t, decodeIPTC([]byte("GIF89a"), bag))
		assert.Zero(t, bag.Len())
	})

	t.Run("truncated segment", func(t *testing.T) {
		head := jpeg(iptcSegment(iimDataset(2, 55, "20240615")))
		assert.Error(t, decodeIPTC(head[:12], make(Bag)))
	})
}

func TestDecodeQuickTime(t *testing.T) {
	expected := time.Date(2024, time.June, 15, 2, 30, 0, 0, time.UTC)
	creation := uint32(expected.Unix() + mp4EpochOffset)

	bag := make(Bag)
	require.NoError(t, decodeQuickTime(mp4WithCreation(creation), bag))
	got, ok := bag.Value(NamespaceQuickTime, TagCreateDate).(time.Time)
	require.True(t, ok)
	assert.True(t, expected.Equal(got))

	t.Run("zero creation time is absent", func(t *testing.T) {
		bag := make(Bag)
		require.NoError(t, decodeQuickTime(mp4WithCreation(0), bag))
		assert.Zero(t, bag.Len())
	})

	t.Run("jpeg is skipped", func(t *testing.T) {
		bag := make(Bag)
		assert.NoError(t, decodeQuickTime(jpeg(), bag))
		assert.Zero(t, bag.Len())
	})
}

func TestDecodeHEIF(t *testing.T) {
	tests := []struct {
		name   string
		inIdat bool
	}{
		{name: "item in mdat", inIdat: false},
		{name: "item in idat", inIdat: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := make(Bag)
			require.NoError(t, decodeHEIF(heicWithExif(sampleTIFF(), tt.inIdat), bag))
			assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal))
			assert.Equal(t, "+08:00", bag.Value(NamespaceEXIF, TagOffsetTimeOriginal))
			assert.Equal(t, "2024:06:15", bag.Value(NamespaceGPS, TagGPSDateStamp))
		})
	}

	t.Run("exif item past the head slice", func(t *testing.T) {
		head := heicWithExif(sampleTIFF(), false)
		err := decodeHEIF(head[:len(head)-40], make(Bag))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the head slice")
	})

	t.Run("no exif item", func(t *testing.T) {
		bag := make(Bag)
		assert.NoError(t, decodeHEIF(mp4WithCreation(1), bag))
		assert.Zero(t, bag.Len())
	})

	t.Run("jpeg is skipped", func(t *testing.T) {
		bag := make(Bag)
		assert.NoError(t, decodeHEIF(jpeg(exifSegment(sampleTIFF())), bag))
		assert.Zero(t, bag.Len())
	})
}

func TestHeadReader(t *testing.T) {
	reader := NewReader(quietLogger())

	t.Run("jpeg with every block", func(t *testing.T) {
		head := jpeg(
			exifSegment(sampleTIFF()),
			xmpSegment("2024-06-15T10:30:00+08:00"),
			iptcSegment(iimDataset(2, 55, "20240615")),
		)
		bag, err := reader.Read(context.Background(), head)
		require.NoError(t, err)
		assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal))
		assert.Equal(t, "20240615", bag.Value(NamespaceIPTC, TagDateCreated))

		var xmpCreate string
		for _, key := range bag.Keys(NamespaceXMP) {
			if strings.HasSuffix(strings.ToLower(key), "createdate") {
				xmpCreate, _ = bag.Value(NamespaceXMP, key).(string)
			}
		}
		assert.Contains(t, xmpCreate, "2024-06-15")
	})

	t.Run("heic exif item", func(t *testing.T) {
		bag, err := reader.Read(context.Background(), heicWithExif(sampleTIFF(), false))
		require.NoError(t, err)
		assert.Equal(t, "2024:06:15 10:30:00", bag.Value(NamespaceEXIF, TagDateTimeOriginal))
		assert.Equal(t, "2024:07:01 08:00:00", bag.Value(NamespaceEXIF, TagModifyDate))
	})

	t.Run("nothing decodable", func(t *testing.T) {
		bag, err := reader.Read(context.Background(), []byte("plain text file"))
		assert.Error(t, err)
		assert.Zero(t, bag.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := reader.Read(ctx, sampleTIFF())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSafeDecodeRecoversPanics(t *testing.T) {
	d := decoder{name: "broken", decode: func([]byte, Bag) error { panic("index out of range") }}
	err := safeDecode(d, nil, make(Bag))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken decoder panicked")
}

func TestSources(t *testing.T) {
	modTime := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	t.Run("memory", func(t *testing.T) {
		src := NewMemorySource("a.jpg", []byte("0123456789"), modTime)
		head, err := src.Head(4)
		require.NoError(t, err)
		assert.Equal(t, []byte("0123"), head)
		assert.Equal(t, int64(10), src.Size())
		assert.Equal(t, "a.jpg", src.Name())
		assert.True(t, modTime.Equal(src.LastModified()))
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "IMG_0001.JPG")
		require.NoError(t, os.WriteFile(path, []byte("abcdef"), 0o644))
		require.NoError(t, os.Chtimes(path, modTime, modTime))

		src, err := OpenFile(path)
		require.NoError(t, err)
		assert.Equal(t, "IMG_0001.JPG", src.Name())
		assert.Equal(t, int64(6), src.Size())
		assert.True(t, modTime.Equal(src.LastModified()))

		head, err := src.Head(0)
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdef"), head)

		_, err = OpenFile(dir)
		assert.Error(t, err)
		_, err = OpenFile(filepath.Join(dir, "missing.jpg"))
		assert.Error(t, err)
	})
}

func TestZoneHint(t *testing.T) {
	bag := Bag{NamespaceGPS: Tags{TagGPSLatitude: 25.0330, TagGPSLongitude: 121.5654}}
	name, ok := ZoneHint(bag)
	require.True(t, ok)
	assert.Equal(t, "Asia/Taipei", name)

	_, ok = ZoneHint(Bag{})
	assert.False(t, ok)
	_, ok = ZoneHint(Bag{NamespaceGPS: Tags{TagGPSLatitude: 123.0, TagGPSLongitude: 0.0}})
	assert.False(t, ok)
}
