package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

/**************************************************************************************************
** Reader decodes the head slice of a file into a metadata Bag.
**************************************************************************************************/
type Reader interface {
	Read(ctx context.Context, head []byte) (Bag, error)
}

type decoder struct {
	name   string
	decode func(head []byte, bag Bag) error
}

/**************************************************************************************************
** HeadReader runs every known decoder over a head slice: EXIF/TIFF, the HEIF Exif item, XMP,
** IPTC and QuickTime.
** A failing decoder is logged and skipped, so a broken maker note never hides a readable XMP
** packet.
**************************************************************************************************/
type HeadReader struct {
	logger   *logrus.Logger
	decoders []decoder
}

/**************************************************************************************************
** NewReader creates a HeadReader.
**
** @param logger - Logger for decoder diagnostics, may be nil
** @return *HeadReader - Reader using every decoder
**************************************************************************************************/
func NewReader(logger *logrus.Logger) *HeadReader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HeadReader{
		logger: logger,
		decoders: []decoder{
			{name: "exif", decode: decodeEXIF},
			{name: "heif", decode: decodeHEIF},
			{name: "xmp", decode: decodeXMP},
			{name: "iptc", decode: decodeIPTC},
			{name: "quicktime", decode: decodeQuickTime},
		},
	}
}

/**************************************************************************************************
** Read decodes the head slice. The returned bag holds whatever could be decoded. An error is
** returned only when the bag is empty: the joined decoder errors, or ErrNoMetadata.
**
** @param ctx - Context, checked between decoders
** @param head - Head slice of the file
** @return Bag - Decoded tags
** @return error - Cancellation, or the reason nothing was decoded
**************************************************************************************************/
func (r *HeadReader) Read(ctx context.Context, head []byte) (Bag, error) {
	bag := make(Bag)
	var errs []error

	for _, d := range r.decoders {
		if err := ctx.Err(); err != nil {
			return bag, err
		}
		if err := safeDecode(d, head, bag); err != nil {
			r.logger.WithFields(logrus.Fields{
				"decoder": d.name,
				"error":   err,
			}).Debug("Metadata decoder failed")
			errs = append(errs, err)
		}
	}

	if bag.Len() > 0 {
		return bag, nil
	}
	if len(errs) > 0 {
		return bag, errors.Join(errs...)
	}
	return bag, ErrNoMetadata
}

func safeDecode(d decoder, head []byte, bag Bag) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s decoder panicked: %v", d.name, rec)
		}
	}()
	return d.decode(head, bag)
}
