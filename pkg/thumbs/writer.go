package thumbs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/majorfi/photo-tiles/pkg/metadata"
	"github.com/majorfi/photo-tiles/pkg/utils"
	"github.com/nfnt/resize"
)

// ErrNotOpenable is returned for sources that only expose a head slice.
var ErrNotOpenable = errors.New("source cannot be opened for full decoding")

/**************************************************************************************************
** Writer renders square JPEG thumbnails into Dir, one file per item id.
**************************************************************************************************/
type Writer struct {
	Dir     string
	Size    int
	Quality int
}

// NewWriter creates a Writer with the default size and quality.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Size: utils.DefaultThumbnailSize, Quality: utils.DefaultThumbnailJPEGScore}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropSquare(img image.Image, crop utils.TCrop) image.Image {
	b := img.Bounds()
	safe := ValidSquareCrop(crop, b.Dx(), b.Dy())
	r := image.Rect(int(safe.X), int(safe.Y), int(safe.X+safe.Size), int(safe.Y+safe.Size)).Add(b.Min)
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

func render(img image.Image, crop utils.TCrop, mode utils.TCropMode, size int) image.Image {
	if mode == utils.CropModeContain {
		fitted := resize.Thumbnail(uint(size), uint(size), img, resize.Lanczos3)
		canvas := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		fb := fitted.Bounds()
		offset := image.Pt((size-fb.Dx())/2, (size-fb.Dy())/2)
		draw.Draw(canvas, fb.Sub(fb.Min).Add(offset), fitted, fb.Min, draw.Over)
		return canvas
	}
	return resize.Resize(uint(size), uint(size), cropSquare(img, crop), resize.Lanczos3)
}

/**************************************************************************************************
** Thumbnail decodes the item's file, applies its crop and mode, and writes <Dir>/<id>.jpg.
**
** @param ctx - Context, checked before decoding
** @param item - Item to render
** @return string - Path of the written file
** @return error - Any error while decoding or writing
**************************************************************************************************/
func (w *Writer) Thumbnail(ctx context.Context, item utils.TPhotoItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opener, ok := item.Source.(metadata.Opener)
	if !ok {
		return "", ErrNotOpenable
	}
	rc, err := opener.Open()
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", item.Name(), err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return "", fmt.Errorf("error decoding %s: %w", item.Name(), err)
	}

	size := w.Size
	if size <= 0 {
		size = utils.DefaultThumbnailSize
	}
	quality := w.Quality
	if quality <= 0 || quality > 100 {
		quality = utils.DefaultThumbnailJPEGScore
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating thumbnail directory: %w", err)
	}
	path := filepath.Join(w.Dir, item.ID+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating thumbnail: %w", err)
	}
	if err := jpeg.Encode(f, render(img, item.Crop, item.CropMode, size), &jpeg.Options{Quality: quality}); err != nil {
		f.Close()
		return "", fmt.Errorf("error encoding thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error writing thumbnail: %w", err)
	}
	return path, nil
}
