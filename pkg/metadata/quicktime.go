package metadata

import (
	"bytes"
	"fmt"
	"time"

	"github.com/abema/go-mp4"
)

// Seconds between the ISO/IEC 14496 epoch (1904-01-01) and the Unix epoch.
const mp4EpochOffset = 2082844800

var topLevelBoxes = [][]byte{[]byte("ftyp"), []byte("moov"), []byte("wide"), []byte("free"), []byte("skip"), []byte("mdat")}

func looksLikeISOBMFF(head []byte) bool {
	if len(head) < 8 {
		return false
	}
	for _, box := range topLevelBoxes {
		if bytes.Equal(head[4:8], box) {
			return true
		}
	}
	return false
}

func isoTimestamp(seconds uint64) (time.Time, bool) {
	if seconds == 0 || seconds < mp4EpochOffset {
		return time.Time{}, false
	}
	return time.Unix(int64(seconds-mp4EpochOffset), 0).UTC(), true
}

/**************************************************************************************************
** decodeQuickTime reads the movie header (mvhd) and the first media header (mdhd) creation
** times of an ISO-BMFF/QuickTime head slice. Both are UTC by definition.
**
** @param head - Head slice of the file
** @param bag - Bag receiving the tags
** @return error - Box parsing error, if any
**************************************************************************************************/
func decodeQuickTime(head []byte, bag Bag) error {
	if !looksLikeISOBMFF(head) {
		return nil
	}

	boxes, err := mp4.ExtractBoxesWithPayload(bytes.NewReader(head), nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
		{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
	})
	if err != nil {
		return fmt.Errorf("reading mp4 boxes: %w", err)
	}

	for _, box := range boxes {
		switch b := box.Payload.(type) {
		case *mp4.Mvhd:
			if ts, ok := isoTimestamp(b.GetCreationTime()); ok {
				bag.Set(NamespaceQuickTime, TagCreateDate, ts)
			}
		case *mp4.Mdhd:
			if _, exists := bag.Get(NamespaceQuickTime, TagMediaCreateDate); exists {
				continue
			}
			creation := uint64(b.CreationTimeV0)
			if b.Version > 0 {
				creation = b.CreationTimeV1
			}
			if ts, ok := isoTimestamp(creation); ok {
				bag.Set(NamespaceQuickTime, TagMediaCreateDate, ts)
			}
		}
	}
	return nil
}
