package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"log"

	xdraw "golang.org/x/image/draw"
)

const iconSize = 32

var (
	iconSelection = color.RGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	iconShade     = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xc0}
)

// renderIcon draws the tray glyph: a dimmed screen with a clear, dashed
// selection rectangle cut out of it.
func renderIcon() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	xdraw.Draw(img, image.Rect(2, 4, 30, 28), image.NewUniform(iconShade), image.Point{}, xdraw.Src)

	sel := image.Rect(8, 10, 24, 22)
	xdraw.Draw(img, sel, image.Transparent, image.Point{}, xdraw.Src)
	for x := sel.Min.X - 1; x <= sel.Max.X; x++ {
		if (x/2)%2 == 0 {
			img.SetRGBA(x, sel.Min.Y-1, iconSelection)
			img.SetRGBA(x, sel.Max.Y, iconSelection)
		}
	}
	for y := sel.Min.Y - 1; y <= sel.Max.Y; y++ {
		if (y/2)%2 == 0 {
			img.SetRGBA(sel.Min.X-1, y, iconSelection)
			img.SetRGBA(sel.Max.X, y, iconSelection)
		}
	}
	return img
}

// iconPNG returns the tray glyph encoded as PNG.
func iconPNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, renderIcon()); err != nil {
		log.Printf("Failed to encode tray icon: %v", err)
		return nil
	}
	return buf.Bytes()
}

// wrapICO packs a PNG into a single-image ICO container, which the Windows
// tray requires. PNG-compressed entries are valid since Vista.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	dim := byte(size)
	if size >= 256 {
		dim = 0
	}
	header := struct {
		Reserved, Type, Count uint16
		Width, Height         byte
		Colors, Reserved2     byte
		Planes, BitCount      uint16
		BytesInRes, Offset    uint32
	}{
		Type:       1,
		Count:      1,
		Width:      dim,
		Height:     dim,
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(pngData)),
		Offset:     22,
	}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	buf.Write(pngData)
	return buf.Bytes()
}
