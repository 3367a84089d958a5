package derivation

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tbnobed/tdmedia-sub001/internal/domain/media"
)

const (
	placeholderWidth  = 320
	placeholderHeight = 180
)

var placeholderBackgrounds = map[media.Kind]color.RGBA{
	media.KindVideo: {R: 0x1f, G: 0x29, B: 0x37, A: 0xff},
	media.KindAudio: {R: 0x2e, G: 0x1f, B: 0x37, A: 0xff},
}

var placeholderText = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// RenderPlaceholder produces the terminal rung of the thumbnail ladder: a
// synthetic PNG carrying the media identifier. It touches no disk and no
// external tool, which is what makes derivation total.
func RenderPlaceholder(mediaID string, kind media.Kind) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))

	bg, ok := placeholderBackgrounds[kind]
	if !ok {
		bg = placeholderBackgrounds[media.KindVideo]
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderText),
		Face: basicfont.Face7x13,
	}
	drawCentered(drawer, strings.ToUpper(string(kind)), placeholderHeight/2-10)
	drawCentered(drawer, mediaID, placeholderHeight/2+10)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawCentered(drawer *font.Drawer, text string, y int) {
	width := drawer.MeasureString(text).Ceil()
	x := (placeholderWidth - width) / 2
	if x < 4 {
		x = 4
	}
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(text)
}
