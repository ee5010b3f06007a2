package preview

import (
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	placeholderBg = color.RGBA{0xee, 0xee, 0xee, 0xff}
	placeholderFg = color.RGBA{0x88, 0x88, 0x88, 0xff}
)

const placeholderFontSize = 12

// DrawPlaceholder returns a width x height tile with lines centered on it.
func DrawPlaceholder(width, height int, lines ...string) (*image.RGBA, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(placeholderBg), image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(placeholderFontSize)
	c.SetClip(dst.Bounds())
	c.SetDst(dst)
	c.SetSrc(image.NewUniform(placeholderFg))
	c.SetHinting(font.HintingFull)

	face := truetype.NewFace(f, &truetype.Options{Size: placeholderFontSize, DPI: 72, Hinting: font.HintingFull})
	defer face.Close()

	lineHeight := placeholderFontSize + 4
	top := (height-lineHeight*len(lines))/2 + placeholderFontSize
	for i, line := range lines {
		x := (width - font.MeasureString(face, line).Ceil()) / 2
		if _, err := c.DrawString(line, freetype.Pt(x, top+i*lineHeight)); err != nil {
			return nil, errors.Wrap(err, "draw string")
		}
	}
	return dst, nil
}
