/**************************************************************************************************
** Package thumbs proposes square crops and renders square JPEG thumbnails. Crops are expressed
** in source pixels; a crop whose size is 1 or less stands for "the centered square".
**************************************************************************************************/
package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/utils"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// CenterCrop returns the largest centered square of a width x height image.
func CenterCrop(width, height int) utils.TCrop {
	size := math.Min(float64(width), float64(height))
	return utils.TCrop{
		X:    (float64(width) - size) / 2,
		Y:    (float64(height) - size) / 2,
		Size: size,
	}
}

/**************************************************************************************************
** ValidSquareCrop clamps a crop inside the image. Crops that are too small or larger than the
** short side are replaced by the centered square.
**************************************************************************************************/
func ValidSquareCrop(crop utils.TCrop, width, height int) utils.TCrop {
	minSide := math.Min(float64(width), float64(height))
	if math.IsNaN(crop.Size) || crop.Size <= 1 || crop.Size > minSide {
		return CenterCrop(width, height)
	}
	x := math.Min(math.Max(0, crop.X), float64(width)-crop.Size)
	y := math.Min(math.Max(0, crop.Y), float64(height)-crop.Size)
	return utils.TCrop{X: x, Y: y, Size: crop.Size}
}

/**************************************************************************************************
** IsSquareLike reports whether an image is square within 2 pixels or 0.15% of its long side.
**************************************************************************************************/
func IsSquareLike(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	maxSide := math.Max(float64(width), float64(height))
	diff := math.Abs(float64(width - height))
	return diff <= math.Max(2, maxSide*0.0015)
}

/**************************************************************************************************
** CenterCropper proposes the centered square of an image. Only the image header is read, from
** the same bounded head slice the metadata reader uses. Square-like images are shown whole.
**************************************************************************************************/
type CenterCropper struct{}

func (CenterCropper) InferCrop(ctx context.Context, src utils.TFileSource) (utils.TCropResult, error) {
	if err := ctx.Err(); err != nil {
		return utils.TCropResult{}, err
	}
	head, err := src.Head(metadata.HeadSize)
	if err != nil {
		return utils.TCropResult{}, fmt.Errorf("error reading %s: %w", src.Name(), err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(head))
	if err != nil {
		return utils.TCropResult{}, fmt.Errorf("error decoding image header of %s: %w", src.Name(), err)
	}

	mode := utils.CropModeCover
	if IsSquareLike(cfg.Width, cfg.Height) {
		mode = utils.CropModeContain
	}
	return utils.TCropResult{Crop: CenterCrop(cfg.Width, cfg.Height), Mode: mode, Confidence: 1}, nil
}
