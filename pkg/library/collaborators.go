package library

import (
	"context"

	"github.com/majorfi/photo-tiles/pkg/dates"
	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/timezone"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/sirupsen/logrus"
)

/**************************************************************************************************
** Extractor turns a file into date candidates. Implementations must not fail: a broken file
** yields the file.lastModified candidate only.
**************************************************************************************************/
type Extractor interface {
	Extract(ctx context.Context, src utils.TFileSource, setting timezone.Setting) []utils.TDateCandidate
}

/**************************************************************************************************
** CropInferer proposes a square crop for a file. An error means "no proposal"; the item keeps
** its current crop.
**************************************************************************************************/
type CropInferer interface {
	InferCrop(ctx context.Context, src utils.TFileSource) (utils.TCropResult, error)
}

/**************************************************************************************************
** Thumbnailer renders the square preview of an item and returns where it was written.
**************************************************************************************************/
type Thumbnailer interface {
	Thumbnail(ctx context.Context, item utils.TPhotoItem) (string, error)
}

/**************************************************************************************************
** MetadataExtractor is the default Extractor: it reads a bounded head of the file with a
** metadata.Reader and builds candidates from the tag bag.
**************************************************************************************************/
type MetadataExtractor struct {
	Reader metadata.Reader
	Logger *logrus.Logger
}

// NewMetadataExtractor wires the head reader from the metadata package.
func NewMetadataExtractor(logger *logrus.Logger) *MetadataExtractor {
	return &MetadataExtractor{Reader: metadata.NewReader(logger), Logger: logger}
}

func (e *MetadataExtractor) Extract(ctx context.Context, src utils.TFileSource, setting timezone.Setting) []utils.TDateCandidate {
	return dates.ExtractForSource(ctx, e.Reader, src, setting, e.Logger)
}
