package metadata

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// EXIF 2.31 offset tags, unknown to goexif's field map.
const (
	tagIDOffsetTime          = 0x9010
	tagIDOffsetTimeOriginal  = 0x9011
	tagIDOffsetTimeDigitized = 0x9012
	tagIDTimeZoneOffset      = 0x882a
)

/**************************************************************************************************
** decodeEXIF reads the TIFF/EXIF block of a JPEG or TIFF head slice into the EXIF and GPS
** namespaces of the bag.
**
** Naming follows exiftool: IFD0 DateTime is ModifyDate and ExifIFD 0x9004 is CreateDate.
**
** @param head - Head slice of the file
** @param bag - Bag receiving the tags
** @return error - Critical decode error, if any
**************************************************************************************************/
func decodeEXIF(head []byte, bag Bag) error {
	x, err := exif.Decode(bytes.NewReader(head))
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return fmt.Errorf("decoding exif: %w", err)
	}

	setString := func(ns Namespace, key string, field exif.FieldName) {
		tag, err := x.Get(field)
		if err != nil {
			return
		}
		if value, ok := tagString(tag); ok {
			bag.Set(ns, key, value)
		}
	}

	setString(NamespaceEXIF, TagDateTimeOriginal, exif.DateTimeOriginal)
	setString(NamespaceEXIF, TagCreateDate, exif.DateTimeDigitized)
	setString(NamespaceEXIF, TagModifyDate, exif.DateTime)
	setString(NamespaceGPS, TagGPSDateStamp, exif.GPSDateStamp)

	if tag, err := x.Get(exif.GPSTimeStamp); err == nil {
		if hms, ok := rationals(tag); ok {
			bag.Set(NamespaceGPS, TagGPSTimeStamp, hms)
		}
	}

	if lat, long, err := x.LatLong(); err == nil {
		bag.Set(NamespaceGPS, TagGPSLatitude, lat)
		bag.Set(NamespaceGPS, TagGPSLongitude, long)
	}

	return decodeOffsetTags(x, bag)
}

/**************************************************************************************************
** decodeOffsetTags walks the raw EXIF sub-IFD for the offset tags goexif does not name.
**************************************************************************************************/
func decodeOffsetTags(x *exif.Exif, bag Bag) error {
	if x.Tiff == nil || len(x.Raw) == 0 {
		return nil
	}
	pointer, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := pointer.Int64(0)
	if err != nil {
		return fmt.Errorf("reading exif ifd pointer: %w", err)
	}

	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking exif ifd: %w", err)
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return fmt.Errorf("decoding exif ifd: %w", err)
	}

	for _, tag := range dir.Tags {
		switch tag.Id {
		case tagIDOffsetTime:
			if value, ok := tagString(tag); ok {
				bag.Set(NamespaceEXIF, TagOffsetTime, value)
			}
		case tagIDOffsetTimeOriginal:
			if value, ok := tagString(tag); ok {
				bag.Set(NamespaceEXIF, TagOffsetTimeOriginal, value)
			}
		case tagIDOffsetTimeDigitized:
			if value, ok := tagString(tag); ok {
				bag.Set(NamespaceEXIF, TagOffsetTimeDigitized, value)
			}
		case tagIDTimeZoneOffset:
			hours := make([]int, 0, tag.Count)
			for i := 0; i < int(tag.Count); i++ {
				h, err := tag.Int(i)
				if err != nil {
					break
				}
				hours = append(hours, h)
			}
			if len(hours) > 0 {
				bag.Set(NamespaceEXIF, TagTimeZoneOffset, hours)
			}
		}
	}
	return nil
}

func tagString(tag *tiff.Tag) (string, bool) {
	value, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	value = strings.TrimSpace(strings.TrimRight(value, "\x00"))
	return value, value != ""
}

func rationals(tag *tiff.Tag) ([]float64, bool) {
	values := make([]float64, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return nil, false
		}
		values = append(values, float64(num)/float64(den))
	}
	return values, len(values) > 0
}
