package deckfs

import (
	"image"
	"image/color"
	"os"

	// Decoders for the supported slot image formats.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// loadKeyImage decodes the file at path and scales it to the device key
// size. Symlinks are followed here (and only here): identity is the link
// path, content is whatever it points at.
func loadKeyImage(path string, width, height int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return scaleToKey(src, width, height), nil
}

// scaleToKey resizes a frame to the device key size. Frames already at
// size pass through untouched.
func scaleToKey(src image.Image, width, height int) image.Image {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// blankKeyImage is the frame shown for empty slots.
func blankKeyImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, color.RGBA{A: 255})
	return img
}

// errorKeyImage is the placeholder shown when a slot's image cannot be
// decoded or its script failed: a red X on a dark field, so failures are
// visible on the device without consulting logs.
func errorKeyImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(img, color.RGBA{R: 32, G: 16, B: 16, A: 255})

	red := color.RGBA{R: 220, G: 40, B: 40, A: 255}
	inset := width / 8
	if h := height / 8; h < inset {
		inset = h
	}
	for i := inset; i < width-inset && i < height-inset; i++ {
		for t := -1; t <= 1; t++ {
			setIfInside(img, i+t, i, red)
			setIfInside(img, i+t, height-1-i, red)
		}
	}
	return img
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
