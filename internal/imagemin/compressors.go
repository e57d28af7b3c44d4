package imagemin

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"regexp"

	"github.com/soniakeys/quant/median"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
)

// Compressor produces a smaller encoding of one image. Returning the input
// unchanged is allowed; the optimizer keeps whichever is smaller.
type Compressor interface {
	Optimize(name string, src []byte) ([]byte, error)
}

// CompressorFunc adapts a function to Compressor.
type CompressorFunc func(name string, src []byte) ([]byte, error)

// Optimize calls f.
func (f CompressorFunc) Optimize(name string, src []byte) ([]byte, error) { return f(name, src) }

// DefaultCompressors maps lower-case extensions to compressors.
func DefaultCompressors() map[string]Compressor {
	jpeg := JPEGCompressor{}
	return map[string]Compressor{
		".svg":  NewSVGCompressor(),
		".png":  NewPNGCompressor(nil),
		".jpg":  jpeg,
		".jpeg": jpeg,
		".gif":  GIFCompressor{},
	}
}

const svgMediaType = "image/svg+xml"

var viewBoxAttr = regexp.MustCompile(`(?i)\sviewBox\s*=`)

// SVGCompressor minifies SVG markup.
type SVGCompressor struct {
	m *minify.M
}

// NewSVGCompressor returns a compressor backed by the tdewolff SVG minifier.
func NewSVGCompressor() *SVGCompressor {
	m := minify.New()
	m.Add(svgMediaType, &svg.Minifier{})
	return &SVGCompressor{m: m}
}

// Optimize minifies src, returning it unchanged if minification dropped its viewBox.
func (c *SVGCompressor) Optimize(name string, src []byte) ([]byte, error) {
	out, err := c.m.Bytes(svgMediaType, src)
	if err != nil {
		return nil, fmt.Errorf("minify %s: %w", name, err)
	}
	if viewBoxAttr.Match(src) && !viewBoxAttr.Match(out) {
		return src, nil
	}
	return out, nil
}

// PaletteQuantizer reduces an image to a palette.
type PaletteQuantizer = draw.Quantizer

// PNGCompressor re-encodes PNGs with a reduced palette.
type PNGCompressor struct {
	quantizer PaletteQuantizer
	drawer    draw.Drawer
	encoder   png.Encoder
}

// NewPNGCompressor uses q, or a 256 colour median cut quantizer when q is nil.
func NewPNGCompressor(q PaletteQuantizer) *PNGCompressor {
	if q == nil {
		q = median.Quantizer(256)
	}
	return &PNGCompressor{
		quantizer: q,
		drawer:    draw.FloydSteinberg,
		encoder:   png.Encoder{CompressionLevel: png.BestCompression},
	}
}

// Optimize quantizes opaque truecolour images and re-encodes everything else
// losslessly.
func (c *PNGCompressor) Optimize(name string, src []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	paletted, ok := img.(*image.Paletted)
	if !ok && !img.Opaque() {
		// The quantizer builds an opaque palette; translucent images are
		// only recompressed losslessly.
		return c.encode(name, img)
	}
	if !ok {
		bounds := img.Bounds()
		palette := c.quantizer.Quantize(make(color.Palette, 0, 256), img)
		if len(palette) == 0 {
			return nil, fmt.Errorf("quantize %s: empty palette", name)
		}
		paletted = image.NewPaletted(bounds, palette)
		c.drawer.Draw(paletted, bounds, img, bounds.Min)
	}

	return c.encode(name, paletted)
}

func (c *PNGCompressor) encode(name string, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// GIFCompressor re-encodes every frame of a GIF.
type GIFCompressor struct{}

// Optimize re-encodes all frames without changing them.
func (GIFCompressor) Optimize(name string, src []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// JPEGCompressor drops metadata segments from a JPEG stream. Entropy coded
// data is copied untouched, so the result is pixel identical.
type JPEGCompressor struct{}

var errBadJPEG = errors.New("not a valid JPEG stream")

const (
	markerSOI  = 0xD8
	markerSOS  = 0xDA
	markerEOI  = 0xD9
	markerAPP0 = 0xE0
	markerAPPE = 0xEE
	markerAPPF = 0xEF
	markerCOM  = 0xFE
)

// Optimize strips metadata segments up to the first scan.
func (JPEGCompressor) Optimize(name string, src []byte) ([]byte, error) {
	if len(src) < 4 || src[0] != 0xFF || src[1] != markerSOI {
		return nil, fmt.Errorf("%s: %w", name, errBadJPEG)
	}
	out := make([]byte, 0, len(src))
	out = append(out, src[:2]...)

	i := 2
	for i < len(src) {
		if src[i] != 0xFF {
			return nil, fmt.Errorf("%s: %w: expected marker at offset %d", name, errBadJPEG, i)
		}
		// Fill bytes.
		for i < len(src) && src[i] == 0xFF {
			i++
		}
		if i >= len(src) {
			return nil, fmt.Errorf("%s: %w: truncated", name, errBadJPEG)
		}
		marker := src[i]
		i++

		if marker == markerEOI {
			out = append(out, 0xFF, marker)
			return out, nil
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			out = append(out, 0xFF, marker)
			continue
		}
		if i+2 > len(src) {
			return nil, fmt.Errorf("%s: %w: truncated segment", name, errBadJPEG)
		}
		length := int(src[i])<<8 | int(src[i+1])
		if length < 2 || i+length > len(src) {
			return nil, fmt.Errorf("%s: %w: bad segment length", name, errBadJPEG)
		}
		segment := src[i : i+length]
		i += length

		if marker == markerSOS {
			// Everything from the scan header on is copied verbatim.
			out = append(out, 0xFF, marker)
			out = append(out, segment...)
			out = append(out, src[i:]...)
			return out, nil
		}
		if isMetadata(marker, segment) {
			continue
		}
		out = append(out, 0xFF, marker)
		out = append(out, segment...)
	}
	return nil, fmt.Errorf("%s: %w: missing scan", name, errBadJPEG)
}

// isMetadata reports whether a segment can be dropped without changing
// decoded pixels. JFIF and Adobe segments affect colour decoding and stay.
func isMetadata(marker byte, segment []byte) bool {
	switch {
	case marker == markerCOM:
		return true
	case marker == markerAPP0:
		return !hasTag(segment, "JFIF\x00")
	case marker == markerAPPE:
		return !hasTag(segment, "Adobe")
	default:
		return marker > markerAPP0 && marker <= markerAPPF
	}
}

func hasTag(segment []byte, tag string) bool {
	return len(segment) >= 2+len(tag) && string(segment[2:2+len(tag)]) == tag
}
