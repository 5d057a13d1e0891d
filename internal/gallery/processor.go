// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gallery

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"os"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // registers the WebP decoder

	"github.com/olegiv/concierge/internal/util"
)

const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeWebP = "image/webp"
)

const (
	VariantLarge = "large"
	VariantThumb = "thumb"
)

// Variant is a stored rendition. Crop variants fill Width x Height; the
// others are scaled down to Width and never enlarged.
type Variant struct {
	Name    string
	Width   int
	Height  int
	Crop    bool
	Quality int
}

// Variants are written for every upload.
var Variants = []Variant{
	{Name: VariantLarge, Width: 1600, Quality: 85},
	{Name: VariantThumb, Width: 400, Height: 300, Crop: true, Quality: 80},
}

// accepted maps sniffed content types to input formats. TIFF is left out
// because of CVE-2023-36308 in the imaging decoder.
var accepted = map[string]string{
	MimeTypeJPEG: "jpeg",
	MimeTypePNG:  "png",
	MimeTypeWebP: "webp",
}

// output is how an upload is stored on disk.
type output struct {
	format imaging.Format
	ext    string
	mime   string
}

var (
	jpegOutput = output{imaging.JPEG, ".jpg", MimeTypeJPEG}
	pngOutput  = output{imaging.PNG, ".png", MimeTypePNG}
)

// outputFor keeps PNG as PNG. JPEG and WebP are stored as JPEG since there
// is no pure Go WebP encoder.
func outputFor(format string) output {
	if format == "png" {
		return pngOutput
	}
	return jpegOutput
}

type decoded struct {
	img    image.Image
	format string
}

// decode sniffs and decodes data and rotates it upright per EXIF.
func decode(data []byte) (*decoded, error) {
	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedType
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return &decoded{img: applyOrientation(img, exifOrientation(data)), format: format}, nil
}

// detectFormat returns jpeg, png, webp or "" for anything else.
func detectFormat(data []byte) string {
	return accepted[http.DetectContentType(data)]
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	if o, err := tag.Int(0); err == nil {
		return o
	}
	return 1
}

// orientations undoes EXIF orientations 2 to 8.
var orientations = map[int]func(image.Image) *image.NRGBA{
	2: imaging.FlipH,
	3: imaging.Rotate180,
	4: imaging.FlipV,
	5: imaging.Transpose,
	6: imaging.Rotate270,
	7: imaging.Transverse,
	8: imaging.Rotate90,
}

func applyOrientation(img image.Image, orientation int) image.Image {
	if fix, ok := orientations[orientation]; ok {
		return fix(img)
	}
	return img
}

func render(img image.Image, v Variant) image.Image {
	switch {
	case v.Crop:
		return imaging.Fill(img, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	case img.Bounds().Dx() > v.Width:
		return imaging.Resize(img, v.Width, 0, imaging.Lanczos)
	default:
		return img
	}
}

// writeVariant stores img as uploadDir/<variant>/<filename> and returns the
// encoded size.
func writeVariant(uploadDir string, v Variant, filename string, out output, img image.Image) (int64, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, out.format, imaging.JPEGQuality(v.Quality)); err != nil {
		return 0, fmt.Errorf("encoding %s variant: %w", v.Name, err)
	}

	dir, err := util.SafeJoinPath(uploadDir, v.Name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s directory: %w", v.Name, err)
	}
	path, err := util.SafeJoinPath(dir, filename)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing %s variant: %w", v.Name, err)
	}
	return int64(buf.Len()), nil
}

// removeVariants deletes every rendition of filename. Missing files are fine.
func removeVariants(uploadDir, filename string) error {
	var errs []error
	for _, v := range Variants {
		path, err := util.SafeJoinPath(uploadDir, v.Name, filename)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s variant: %w", v.Name, err))
		}
	}
	return errors.Join(errs...)
}
