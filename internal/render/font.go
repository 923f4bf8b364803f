package render

import (
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFontSize matches the point size used for every label on the grid.
const DefaultFontSize = 20.0

var (
	fallbackOnce sync.Once
	fallbackFont *truetype.Font
	fallbackErr  error
)

// LoadFont parses the TrueType file at path.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return freetype.ParseFont(data)
}

// DefaultFont returns the embedded Go Regular font.
func DefaultFont() *truetype.Font {
	fallbackOnce.Do(func() {
		fallbackFont, fallbackErr = freetype.ParseFont(goregular.TTF)
	})
	if fallbackErr != nil {
		// goregular.TTF is compiled in; a parse failure is a build defect.
		panic(fallbackErr)
	}
	return fallbackFont
}

// newFace returns a fresh face for f. A truetype face caches glyphs on every
// draw and must not be shared between goroutines; the parsed font may be.
func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
