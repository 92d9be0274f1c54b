package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "trimmer.io/go-xmp/models"
	"trimmer.io/go-xmp/xmp"
)

/**************************************************************************************************
** decodeXMP scans the head slice for XMP packets and records every date-like property under
** its qualified path, e.g. "xmp:CreateDate" or "photoshop:DateCreated".
**
** @param head - Head slice of the file
** @param bag - Bag receiving the tags
** @return error - Scan or unmarshal error, if any
**************************************************************************************************/
func decodeXMP(head []byte, bag Bag) error {
	packets, err := xmp.ScanPackets(bytes.NewReader(head))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("scanning xmp packets: %w", err)
	}

	for _, packet := range packets {
		var doc xmp.Document
		if err := xmp.Unmarshal(packet, &doc); err != nil {
			return fmt.Errorf("unmarshaling xmp document: %w", err)
		}
		paths, err := doc.ListPaths()
		if err != nil {
			return fmt.Errorf("listing xmp paths: %w", err)
		}
		for _, p := range paths {
			path := string(p.Path)
			if !strings.Contains(strings.ToLower(path), "date") {
				continue
			}
			if value := strings.TrimSpace(p.Value); value != "" {
				bag.Set(NamespaceXMP, path, value)
			}
		}
	}
	return nil
}
