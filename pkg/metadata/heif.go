package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/abema/go-mp4"
)

var (
	boxTypeIinf = mp4.StrToBoxType("iinf")
	boxTypeIloc = mp4.StrToBoxType("iloc")
	boxTypeIdat = mp4.StrToBoxType("idat")
)

var errTruncatedBox = errors.New("truncated box")

// heifExtent is one byte range of an item, relative to the item's base offset.
type heifExtent struct {
	offset uint64
	length uint64
}

// heifLocation is an iloc entry. Method 0 addresses the file, method 1 the idat box.
type heifLocation struct {
	method     uint16
	baseOffset uint64
	extents    []heifExtent
}

/**************************************************************************************************
** decodeHEIF reads the Exif item of a HEIF, HEIC or AVIF head slice. The item is found through
** the meta box: iinf names it, iloc says where its bytes are. The item starts with the offset
** of the TIFF header, which is skipped before the TIFF block goes through the EXIF decoder.
**
** @param head - Head slice of the file
** @param bag - Bag receiving the tags
** @return error - Box parsing error, or an Exif item outside the head slice
**************************************************************************************************/
func decodeHEIF(head []byte, bag Bag) error {
	if !looksLikeISOBMFF(head) {
		return nil
	}

	boxes, err := mp4.ExtractBoxes(bytes.NewReader(head), nil, []mp4.BoxPath{
		{mp4.BoxTypeMeta(), boxTypeIinf},
		{mp4.BoxTypeMeta(), boxTypeIloc},
		{mp4.BoxTypeMeta(), boxTypeIdat},
	})
	if err != nil {
		return fmt.Errorf("reading heif boxes: %w", err)
	}

	payloads := make(map[mp4.BoxType][]byte, len(boxes))
	for _, bi := range boxes {
		if _, seen := payloads[bi.Type]; seen {
			continue
		}
		start, end := bi.Offset+bi.HeaderSize, bi.Offset+bi.Size
		if end > uint64(len(head)) {
			return fmt.Errorf("%s box: %w", bi.Type, errTruncatedBox)
		}
		payloads[bi.Type] = head[start:end]
	}
	if payloads[boxTypeIinf] == nil || payloads[boxTypeIloc] == nil {
		return nil
	}

	id, found, err := findExifItem(payloads[boxTypeIinf])
	if err != nil || !found {
		return err
	}
	loc, found, err := findItemLocation(payloads[boxTypeIloc], id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("exif item %d has no location", id)
	}

	data, err := itemData(head, payloads[boxTypeIdat], loc)
	if err != nil {
		return fmt.Errorf("exif item %d: %w", id, err)
	}
	if len(data) < 4 {
		return fmt.Errorf("exif item %d: %w", id, errTruncatedBox)
	}
	skip := 4 + uint64(binary.BigEndian.Uint32(data))
	if skip >= uint64(len(data)) {
		return fmt.Errorf("exif item %d: tiff header offset %d out of range", id, skip-4)
	}
	return decodeEXIF(data[skip:], bag)
}

/**************************************************************************************************
** findExifItem walks the infe entries of an iinf payload and returns the id of the first item of
** type "Exif". Entries older than version 2 carry no item type and are skipped.
**************************************************************************************************/
func findExifItem(iinf []byte) (uint32, bool, error) {
	r := bytes.NewReader(iinf)
	version, _, err := readFullBoxHeader(r)
	if err != nil {
		return 0, false, err
	}
	var count uint32
	if version == 0 {
		n, err := readUint(r, 2)
		if err != nil {
			return 0, false, err
		}
		count = uint32(n)
	} else {
		n, err := readUint(r, 4)
		if err != nil {
			return 0, false, err
		}
		count = uint32(n)
	}

	for i := uint32(0); i < count; i++ {
		bi, err := mp4.ReadBoxInfo(r)
		if err != nil {
			return 0, false, fmt.Errorf("reading infe: %w", err)
		}
		payloadLen := int64(bi.Size - bi.HeaderSize)
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return 0, false, fmt.Errorf("reading infe: %w", errTruncatedBox)
		}
		if bi.Type != mp4.StrToBoxType("infe") {
			continue
		}

		er := bytes.NewReader(payload)
		v, _, err := readFullBoxHeader(er)
		if err != nil || v < 2 {
			continue
		}
		idSize := 2
		if v >= 3 {
			idSize = 4
		}
		id, err := readUint(er, idSize)
		if err != nil {
			return 0, false, err
		}
		// item_protection_index
		if _, err := readUint(er, 2); err != nil {
			return 0, false, err
		}
		itemType := make([]byte, 4)
		if _, err := io.ReadFull(er, itemType); err != nil {
			return 0, false, errTruncatedBox
		}
		if string(itemType) == "Exif" {
			return uint32(id), true, nil
		}
	}
	return 0, false, nil
}

/**************************************************************************************************
** findItemLocation reads an iloc payload (versions 0 to 2) and returns the entry of one item.
**************************************************************************************************/
func findItemLocation(iloc []byte, itemID uint32) (heifLocation, bool, error) {
	r := bytes.NewReader(iloc)
	version, _, err := readFullBoxHeader(r)
	if err != nil {
		return heifLocation{}, false, err
	}
	if version > 2 {
		return heifLocation{}, false, fmt.Errorf("unsupported iloc version %d", version)
	}
	sizes := make([]byte, 2)
	if _, err := io.ReadFull(r, sizes); err != nil {
		return heifLocation{}, false, errTruncatedBox
	}
	offsetSize := int(sizes[0] >> 4)
	lengthSize := int(sizes[0] & 0x0f)
	baseOffsetSize := int(sizes[1] >> 4)
	indexSize := 0
	if version > 0 {
		indexSize = int(sizes[1] & 0x0f)
	}

	countSize, idSize := 2, 2
	if version == 2 {
		countSize, idSize = 4, 4
	}
	count, err := readUint(r, countSize)
	if err != nil {
		return heifLocation{}, false, err
	}

	for i := uint64(0); i < count; i++ {
		id, err := readUint(r, idSize)
		if err != nil {
			return heifLocation{}, false, err
		}
		var loc heifLocation
		if version > 0 {
			method, err := readUint(r, 2)
			if err != nil {
				return heifLocation{}, false, err
			}
			loc.method = uint16(method & 0x0f)
		}
		// data_reference_index
		if _, err := readUint(r, 2); err != nil {
			return heifLocation{}, false, err
		}
		if loc.baseOffset, err = readUint(r, baseOffsetSize); err != nil {
			return heifLocation{}, false, err
		}
		extents, err := readUint(r, 2)
		if err != nil {
			return heifLocation{}, false, err
		}
		for e := uint64(0); e < extents; e++ {
			if _, err := readUint(r, indexSize); err != nil {
				return heifLocation{}, false, err
			}
			var ext heifExtent
			if ext.offset, err = readUint(r, offsetSize); err != nil {
				return heifLocation{}, false, err
			}
			if ext.length, err = readUint(r, lengthSize); err != nil {
				return heifLocation{}, false, err
			}
			loc.extents = append(loc.extents, ext)
		}
		if uint32(id) == itemID {
			return loc, true, nil
		}
	}
	return heifLocation{}, false, nil
}

/**************************************************************************************************
** itemData concatenates the extents of an item, read from the file head (method 0) or from the
** idat payload (method 1). An extent of length 0 runs to the end of its source.
**************************************************************************************************/
func itemData(head, idat []byte, loc heifLocation) ([]byte, error) {
	var src []byte
	switch loc.method {
	case 0:
		src = head
	case 1:
		src = idat
	default:
		return nil, fmt.Errorf("unsupported construction method %d", loc.method)
	}

	var out []byte
	for _, ext := range loc.extents {
		start := loc.baseOffset + ext.offset
		end := start + ext.length
		if ext.length == 0 {
			end = uint64(len(src))
		}
		if start > end || end > uint64(len(src)) {
			return nil, fmt.Errorf("extent %d+%d is outside the head slice", start, ext.length)
		}
		out = append(out, src[start:end]...)
	}
	return out, nil
}

func readFullBoxHeader(r *bytes.Reader) (uint8, uint32, error) {
	v, err := readUint(r, 4)
	if err != nil {
		return 0, 0, err
	}
	return uint8(v >> 24), uint32(v & 0xffffff), nil
}

// readUint reads a big-endian unsigned integer of 0, 1, 2, 4 or 8 bytes.
func readUint(r *bytes.Reader, size int) (uint64, error) {
	if size == 0 {
		return 0, nil
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errTruncatedBox
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case 8:
		return binary.BigEndian.Uint64(buf), nil
	default:
		return 0, fmt.Errorf("unsupported field size %d", size)
	}
}
