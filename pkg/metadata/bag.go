// Package metadata turns the head of an image or video file into a namespaced bag of raw tag
// values. It never interprets dates; that is the dates package's job.
package metadata

import (
	"errors"
	"sort"
)

// Namespace groups tags by the metadata block they were read from.
type Namespace string

const (
	NamespaceEXIF      Namespace = "EXIF"
	NamespaceGPS       Namespace = "GPS"
	NamespaceXMP       Namespace = "XMP"
	NamespaceIPTC      Namespace = "IPTC"
	NamespaceQuickTime Namespace = "QuickTime"
)

// Tag names shared between the decoders and the date extraction.
const (
	TagDateTimeOriginal    = "DateTimeOriginal"
	TagCreateDate          = "CreateDate"
	TagDateTimeDigitized   = "DateTimeDigitized"
	TagModifyDate          = "ModifyDate"
	TagDateTime            = "DateTime"
	TagOffsetTime          = "OffsetTime"
	TagOffsetTimeOriginal  = "OffsetTimeOriginal"
	TagOffsetTimeDigitized = "OffsetTimeDigitized"
	TagTimeZoneOffset      = "TimeZoneOffset"
	TagGPSDateStamp        = "GPSDateStamp"
	TagGPSTimeStamp        = "GPSTimeStamp"
	TagGPSLatitude         = "GPSLatitude"
	TagGPSLongitude        = "GPSLongitude"
	TagDateCreated         = "DateCreated"
	TagTimeCreated         = "TimeCreated"
	TagMediaCreateDate     = "MediaCreateDate"
)

// ErrNoMetadata is returned when a head slice carries no metadata block any decoder understands.
var ErrNoMetadata = errors.New("no metadata found")

/**************************************************************************************************
** Tags holds raw tag values of one namespace. Values are strings, time.Time, numbers or slices
** of numbers, exactly as the decoder produced them.
**************************************************************************************************/
type Tags map[string]any

/**************************************************************************************************
** Bag is the full decoded metadata of one file, keyed by namespace.
**************************************************************************************************/
type Bag map[Namespace]Tags

/**************************************************************************************************
** Get returns the raw value of a tag. A nil bag or a missing namespace behaves like an empty
** one.
**
** @param ns - Namespace to look in
** @param key - Tag name
** @return any - Raw value
** @return bool - True if the tag exists
**************************************************************************************************/
func (b Bag) Get(ns Namespace, key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	tags, ok := b[ns]
	if !ok {
		return nil, false
	}
	value, ok := tags[key]
	return value, ok
}

// Value is Get without the presence flag.
func (b Bag) Value(ns Namespace, key string) any {
	value, _ := b.Get(ns, key)
	return value
}

// Set stores a tag value, creating the namespace when needed. Nil values are ignored.
func (b Bag) Set(ns Namespace, key string, value any) {
	if value == nil {
		return
	}
	tags, ok := b[ns]
	if !ok {
		tags = make(Tags)
		b[ns] = tags
	}
	tags[key] = value
}

// Merge copies every tag of other into b. Existing tags win.
func (b Bag) Merge(other Bag) {
	for ns, tags := range other {
		for key, value := range tags {
			if _, exists := b.Get(ns, key); !exists {
				b.Set(ns, key, value)
			}
		}
	}
}

// Len returns the number of tags across all namespaces.
func (b Bag) Len() int {
	n := 0
	for _, tags := range b {
		n += len(tags)
	}
	return n
}

// Keys returns the sorted tag names of a namespace.
func (b Bag) Keys(ns Namespace) []string {
	keys := make([]string, 0, len(b[ns]))
	for key := range b[ns] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
