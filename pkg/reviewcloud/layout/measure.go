package layout

import (
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the rendered size of text at a font size in pixels.
type Measurer interface {
	Measure(text string, fontSize float64) (width, height float64)
}

// FixedMeasurer approximates text size from per-rune width and line
// height ratios of the font size.
type FixedMeasurer struct {
	CharWidth  float64
	LineHeight float64
}

// Measure implements Measurer.
func (m FixedMeasurer) Measure(text string, fontSize float64) (float64, float64) {
	cw, lh := m.CharWidth, m.LineHeight
	if cw <= 0 {
		cw = 0.6
	}
	if lh <= 0 {
		lh = 1.2
	}
	return float64(utf8.RuneCountInString(text)) * cw * fontSize, lh * fontSize
}

// FontMeasurer measures text with the Go Regular font. Faces are cached
// per size.
type FontMeasurer struct {
	mu    sync.Mutex
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFontMeasurer parses the embedded Go Regular font.
func NewFontMeasurer() (*FontMeasurer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

// Measure implements Measurer. Sizes the font cannot render fall back to
// FixedMeasurer estimates.
func (m *FontMeasurer) Measure(text string, fontSize float64) (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	face, ok := m.faces[fontSize]
	if !ok {
		var err error
		face, err = opentype.NewFace(m.font, &opentype.FaceOptions{
			Size:    fontSize,
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return FixedMeasurer{}.Measure(text, fontSize)
		}
		m.faces[fontSize] = face
	}

	width := float64(font.MeasureString(face, text)) / 64
	height := float64(face.Metrics().Height) / 64
	return width, height
}

// Close releases the cached faces.
func (m *FontMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for size, face := range m.faces {
		face.Close()
		delete(m.faces, size)
	}
	return nil
}
