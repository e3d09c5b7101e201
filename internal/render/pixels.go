package render

import (
	"image"
	"image/color"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette.
// Values past the end of the palette use its last entry. When the palette is
// empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// FillRGBA writes the standard palette colors for cells into buf, which must
// hold 4*len(cells) bytes.
func FillRGBA(buf []byte, cells []uint8) {
	fillPaletteRGBA(buf, cells, Palette[:])
}

// Image converts a w x h raster into an RGBA image.
func Image(cells []uint8, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(cells) != w*h {
		return img
	}
	FillRGBA(img.Pix, cells)
	return img
}
