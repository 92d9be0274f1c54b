package metadata

import (
	"bytes"
	"encoding/binary"
)

type testTag struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiTag(id uint16, s string) testTag {
	b := append([]byte(s), 0)
	return testTag{id: id, typ: 2, count: uint32(len(b)), data: b}
}

func sshortTag(id uint16, v int16) testTag {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return testTag{id: id, typ: 8, count: 1, data: b}
}

func rationalTag(id uint16, values ...uint32) testTag {
	b := make([]byte, 0, 8*len(values))
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, v)
		b = binary.LittleEndian.AppendUint32(b, 1)
	}
	return testTag{id: id, typ: 5, count: uint32(len(values)), data: b}
}

func pointerTag(id uint16) testTag {
	return testTag{id: id, typ: 4, count: 1, data: make([]byte, 4)}
}

// buildTIFF lays out a little-endian TIFF: IFD0, the Exif IFD, the GPS IFD, then value data.
func buildTIFF(ifd0, exifIFD, gpsIFD []testTag) []byte {
	le := binary.LittleEndian
	ifdSize := func(n int) int { return 2 + 12*n + 4 }

	ifd0 = append(append([]testTag{}, ifd0...), pointerTag(0x8769))
	if len(gpsIFD) > 0 {
		ifd0 = append(ifd0, pointerTag(0x8825))
	}

	ifd0Off := 8
	exifOff := ifd0Off + ifdSize(len(ifd0))
	gpsOff := exifOff + ifdSize(len(exifIFD))
	dataOff := gpsOff
	if len(gpsIFD) > 0 {
		dataOff += ifdSize(len(gpsIFD))
	}

	le.PutUint32(ifd0[indexOf(ifd0, 0x8769)].data, uint32(exifOff))
	if len(gpsIFD) > 0 {
		le.PutUint32(ifd0[indexOf(ifd0, 0x8825)].data, uint32(gpsOff))
	}

	buf := make([]byte, dataOff)
	copy(buf, "II*\x00")
	le.PutUint32(buf[4:], uint32(ifd0Off))

	var extra []byte
	writeIFD := func(at int, tags []testTag) {
		le.PutUint16(buf[at:], uint16(len(tags)))
		for i, tag := range tags {
			e := at + 2 + 12*i
			le.PutUint16(buf[e:], tag.id)
			le.PutUint16(buf[e+2:], tag.typ)
			le.PutUint32(buf[e+4:], tag.count)
			if len(tag.data) <= 4 {
				copy(buf[e+8:e+12], tag.data)
				continue
			}
			le.PutUint32(buf[e+8:], uint32(dataOff+len(extra)))
			extra = append(extra, tag.data...)
			if len(extra)%2 == 1 {
				extra = append(extra, 0)
			}
		}
	}

	writeIFD(ifd0Off, ifd0)
	writeIFD(exifOff, exifIFD)
	if len(gpsIFD) > 0 {
		writeIFD(gpsOff, gpsIFD)
	}
	return append(buf, extra...)
}

func indexOf(tags []testTag, id uint16) int {
	for i, tag := range tags {
		if tag.id == id {
			return i
		}
	}
	return -1
}

func segment(marker byte, payload []byte) []byte {
	out := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(out[2:], uint16(len(payload)+2))
	return append(out, payload...)
}

func exifSegment(tiffData []byte) []byte {
	return segment(0xE1, append([]byte("Exif\x00\x00"), tiffData...))
}

func xmpSegment(createDate string) []byte {
	packet := `<?xpacket begin="` + "\xef\xbb\xbf" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
		`<x:xmpmeta xmlns:x="adobe:ns:meta/">` +
		`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:CreateDate="` + createDate + `"/>` +
		`</rdf:RDF></x:xmpmeta><?xpacket end="w"?>`
	return segment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

func iimDataset(record, dataset byte, value string) []byte {
	out := []byte{0x1C, record, dataset, 0, 0}
	binary.BigEndian.PutUint16(out[3:], uint16(len(value)))
	return append(out, value...)
}

func iptcSegment(datasets ...[]byte) []byte {
	iim := bytes.Join(datasets, nil)
	var res bytes.Buffer
	res.WriteString("8BIM")
	_ = binary.Write(&res, binary.BigEndian, uint16(0x0404))
	res.Write([]byte{0, 0}) // empty pascal name, padded
	_ = binary.Write(&res, binary.BigEndian, uint32(len(iim)))
	res.Write(iim)
	if len(iim)%2 == 1 {
		res.WriteByte(0)
	}
	return segment(0xED, append([]byte("Photoshop 3.0\x00"), res.Bytes()...))
}

func jpeg(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, 0xFF, 0xD9)
}

func box(kind string, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(out, uint32(8+len(payload)))
	copy(out[4:], kind)
	return append(out, payload...)
}

// mp4WithCreation builds ftyp + moov/mvhd (version 0) with the given 1904-epoch creation time.
func mp4WithCreation(creation uint32) []byte {
	mvhd := make([]byte, 100)
	binary.BigEndian.PutUint32(mvhd[4:], creation)
	binary.BigEndian.PutUint32(mvhd[8:], creation)
	binary.BigEndian.PutUint32(mvhd[12:], 1000)       // timescale
	binary.BigEndian.PutUint32(mvhd[20:], 0x00010000) // rate 1.0
	binary.BigEndian.PutUint16(mvhd[24:], 0x0100)     // volume 1.0
	binary.BigEndian.PutUint32(mvhd[96:], 2)          // next track id

	ftyp := box("ftyp", append([]byte("isom\x00\x00\x02\x00"), "isomiso2mp41"...))
	return append(ftyp, box("moov", box("mvhd", mvhd))...)
}

func fullBox(kind string, version byte, payload []byte) []byte {
	return box(kind, append([]byte{version, 0, 0, 0}, payload...))
}

// exifItem is the payload of a HEIF Exif item: the TIFF header offset, then "Exif\0\0" and the TIFF.
func exifItem(tiffData []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, 6)
	out = append(out, "Exif\x00\x00"...)
	return append(out, tiffData...)
}

func infe(id uint16, itemType string) []byte {
	p := binary.BigEndian.AppendUint16(nil, id)
	p = binary.BigEndian.AppendUint16(p, 0) // protection index
	p = append(p, itemType...)
	return fullBox("infe", 2, append(p, 0))
}

// heicWithExif builds ftyp + meta (iinf, iloc) around an Exif item stored as item 2 after an
// image item. With inIdat the item lives in the meta idat box (iloc version 1, method 1),
// otherwise in a trailing mdat addressed by file offset (iloc version 0).
func heicWithExif(tiffData []byte, inIdat bool) []byte {
	item := exifItem(tiffData)
	entries := append(infe(1, "hvc1"), infe(2, "Exif")...)
	iinf := fullBox("iinf", 0, append(binary.BigEndian.AppendUint16(nil, 2), entries...))

	iloc := func(offset uint32) []byte {
		version := byte(0)
		p := []byte{0x44, 0x00} // 4-byte offsets and lengths, no base offset
		p = binary.BigEndian.AppendUint16(p, 1)
		p = binary.BigEndian.AppendUint16(p, 2)
		if inIdat {
			version = 1
			p = binary.BigEndian.AppendUint16(p, 1) // construction method
		}
		p = binary.BigEndian.AppendUint16(p, 0) // data reference index
		p = binary.BigEndian.AppendUint16(p, 1) // extent count
		p = binary.BigEndian.AppendUint32(p, offset)
		p = binary.BigEndian.AppendUint32(p, uint32(len(item)))
		return fullBox("iloc", version, p)
	}

	ftyp := box("ftyp", append([]byte("heic\x00\x00\x00\x00"), "mif1heic"...))
	if inIdat {
		meta := fullBox("meta", 0, bytes.Join([][]byte{iinf, iloc(0), box("idat", item)}, nil))
		return append(ftyp, meta...)
	}

	metaSize := len(fullBox("meta", 0, append(append([]byte{}, iinf...), iloc(0)...)))
	offset := uint32(len(ftyp) + metaSize + 8)
	meta := fullBox("meta", 0, append(append([]byte{}, iinf...), iloc(offset)...))
	return bytes.Join([][]byte{ftyp, meta, box("mdat", item)}, nil)
}
