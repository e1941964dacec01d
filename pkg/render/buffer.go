// Package render holds the framebuffer type shared by all effects and
// the integer blend primitives their hot loops use.
package render

import "image"

// Buffer is a width*height framebuffer of packed 0xAARRGGBB pixels,
// row-major with no padding. Effects read one buffer and write either in
// place or into a second buffer of the same size; the chain decides which
// is current.
type Buffer struct {
	W, H int
	Pix  []uint32
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{W: w, H: h, Pix: make([]uint32, w*h)}
}

// At returns the pixel at (x, y). Callers stay in bounds.
func (b *Buffer) At(x, y int) uint32 {
	return b.Pix[y*b.W+x]
}

// Set writes the pixel at (x, y). Callers stay in bounds.
func (b *Buffer) Set(x, y int, c uint32) {
	b.Pix[y*b.W+x] = c
}

// Clear zeroes every pixel.
func (b *Buffer) Clear() {
	for i := range b.Pix {
		b.Pix[i] = 0
	}
}

// CopyFrom copies src's pixels. The buffers must be the same size.
func (b *Buffer) CopyFrom(src *Buffer) {
	copy(b.Pix, src.Pix)
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	nb := NewBuffer(b.W, b.H)
	copy(nb.Pix, b.Pix)
	return nb
}

// ToRGBA converts the buffer into an image for encoding or display. The
// alpha channel is forced opaque; effects treat it as scratch.
func (b *Buffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.W, b.H))
	for i, c := range b.Pix {
		img.Pix[i*4+0] = uint8(c >> 16)
		img.Pix[i*4+1] = uint8(c >> 8)
		img.Pix[i*4+2] = uint8(c)
		img.Pix[i*4+3] = 0xFF
	}
	return img
}

// FromRGBA loads pixels from an image into a new buffer.
func FromRGBA(img *image.RGBA) *Buffer {
	bounds := img.Bounds()
	b := NewBuffer(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			o := img.PixOffset(x, y)
			b.Pix[i] = uint32(img.Pix[o])<<16 | uint32(img.Pix[o+1])<<8 | uint32(img.Pix[o+2])
			i++
		}
	}
	return b
}
