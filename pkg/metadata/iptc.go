package metadata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

const (
	markerSOI   = 0xD8
	markerSOS   = 0xDA
	markerEOI   = 0xD9
	markerAPP13 = 0xED

	resourceIPTC = 0x0404

	iimTagMarker   = 0x1C
	iimRecordApp   = 2
	iimDateCreated = 55
	iimTimeCreated = 60

	photoshopSignature = "Photoshop 3.0\x00"
)

var errTruncatedIPTC = errors.New("truncated iptc block")

/**************************************************************************************************
** decodeIPTC walks the JPEG segments of the head slice, finds the Photoshop APP13 block and
** reads IIM DateCreated (2:55) and TimeCreated (2:60) from its IPTC-NAA resource. Values are
** stored as written, e.g. "20240615" and "103000+0800".
**
** @param head - Head slice of the file
** @param bag - Bag receiving the tags
** @return error - Malformed segment error, if any
**************************************************************************************************/
func decodeIPTC(head []byte, bag Bag) error {
	if len(head) < 4 || head[0] != 0xFF || head[1] != markerSOI {
		return nil
	}

	pos := 2
	for pos+4 <= len(head) {
		if head[pos] != 0xFF {
			return nil
		}
		marker := head[pos+1]
		if marker == 0xFF {
			pos++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			return nil
		}
		length := int(binary.BigEndian.Uint16(head[pos+2 : pos+4]))
		if length < 2 || pos+2+length > len(head) {
			return errTruncatedIPTC
		}
		segment := head[pos+4 : pos+2+length]
		if marker == markerAPP13 && bytes.HasPrefix(segment, []byte(photoshopSignature)) {
			if iim, ok := findPhotoshopResource(segment[len(photoshopSignature):], resourceIPTC); ok {
				readIIMDates(iim, bag)
			}
		}
		pos += 2 + length
	}
	return nil
}

/**************************************************************************************************
** findPhotoshopResource returns the data of the first 8BIM resource block with the given id.
**************************************************************************************************/
func findPhotoshopResource(data []byte, id uint16) ([]byte, bool) {
	pos := 0
	for pos+12 <= len(data) {
		if string(data[pos:pos+4]) != "8BIM" {
			return nil, false
		}
		resourceID := binary.BigEndian.Uint16(data[pos+4 : pos+6])
		pos += 6

		// pascal name, padded to an even length including its length byte
		nameLen := int(data[pos])
		pos += 1 + nameLen
		if (1+nameLen)%2 != 0 {
			pos++
		}
		if pos+4 > len(data) {
			return nil, false
		}
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if size < 0 || pos+size > len(data) {
			return nil, false
		}
		if resourceID == id {
			return data[pos : pos+size], true
		}
		pos += size
		if size%2 != 0 {
			pos++
		}
	}
	return nil, false
}

func readIIMDates(iim []byte, bag Bag) {
	pos := 0
	for pos+5 <= len(iim) {
		if iim[pos] != iimTagMarker {
			return
		}
		record := iim[pos+1]
		dataset := iim[pos+2]
		size := int(binary.BigEndian.Uint16(iim[pos+3 : pos+5]))
		pos += 5
		// extended datasets carry no dates
		if size&0x8000 != 0 || pos+size > len(iim) {
			return
		}
		value := strings.TrimSpace(string(iim[pos : pos+size]))
		pos += size

		if record != iimRecordApp || value == "" {
			continue
		}
		switch dataset {
		case iimDateCreated:
			bag.Set(NamespaceIPTC, TagDateCreated, value)
		case iimTimeCreated:
			bag.Set(NamespaceIPTC, TagTimeCreated, value)
		}
	}
}
