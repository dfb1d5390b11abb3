// Package dng reads the uncompressed CFA subset of the DNG/TIFF raw
// format: a mosaiced sensor dump plus the shot metadata needed to turn
// it into display RGB. Decoding is deterministic given only the file;
// white balance always comes from the embedded AsShotNeutral tag.
package dng

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
)

var ErrNotRaw = errors.New("not a TIFF/DNG raw file")

// TIFF/DNG tag IDs used by the reader.
const (
	tagNewSubfileType = 254
	tagImageWidth     = 256
	tagImageLength    = 257
	tagBitsPerSample  = 258
	tagCompression    = 259
	tagPhotometric    = 262
	tagStripOffsets   = 273
	tagRowsPerStrip   = 278
	tagStripByteCount = 279
	tagTileWidth      = 322
	tagSubIFDs        = 330
	tagCFAPatternDim  = 33421
	tagCFAPattern     = 33422
	tagBlackLevel     = 50714
	tagWhiteLevel     = 50717
	tagAsShotNeutral  = 50728
)

const (
	compressionNone = 1
	photometricCFA  = 32803
)

type ifdEntry struct {
	typ   uint16
	count uint32
	raw   [4]byte
}

type ifd map[uint16]ifdEntry

type parser struct {
	data  []byte
	order binary.ByteOrder
}

// DecodeFile reads and decodes a raw file from disk.
func DecodeFile(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode turns raw DNG bytes into an 8-bit RGB image: bilinear demosaic
// of the CFA mosaic, embedded white balance, black/white level scaling
// and sRGB encoding.
func Decode(data []byte) (*image.RGBA, error) {
	p, ifd0, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	raw, err := p.findRawIFD(ifd0)
	if err != nil {
		return nil, err
	}

	width := int(p.scalarValue(raw, tagImageWidth))
	height := int(p.scalarValue(raw, tagImageLength))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("dng: bad raw dimensions %dx%d", width, height)
	}
	if _, tiled := raw[tagTileWidth]; tiled {
		return nil, errors.New("dng: tiled raw data not supported")
	}
	if c := p.scalarValue(raw, tagCompression); c != 0 && c != compressionNone {
		return nil, fmt.Errorf("dng: unsupported compression %d", c)
	}

	bits := p.scalarValue(raw, tagBitsPerSample)
	if bits == 0 {
		bits = 16
	}
	if bits != 8 && bits != 16 {
		return nil, fmt.Errorf("dng: unsupported bit depth %d", bits)
	}

	pattern, err := p.cfaPattern(raw)
	if err != nil {
		return nil, err
	}

	samples, err := p.readStrips(raw, width, height, int(bits))
	if err != nil {
		return nil, err
	}

	black, white := p.levels(raw, int(bits))
	gains := p.whiteBalanceGains(ifd0)

	return demosaic(samples, width, height, pattern, black, white, gains), nil
}

func parseHeader(data []byte) (*parser, ifd, error) {
	if len(data) < 8 {
		return nil, nil, ErrNotRaw
	}
	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, nil, ErrNotRaw
	}
	p := &parser{data: data, order: order}
	if p.order.Uint16(data[2:4]) != 42 {
		return nil, nil, ErrNotRaw
	}
	ifd0, err := p.readIFD(int64(p.order.Uint32(data[4:8])))
	if err != nil {
		return nil, nil, err
	}
	return p, ifd0, nil
}

func (p *parser) readIFD(offset int64) (ifd, error) {
	if offset <= 0 || offset+2 > int64(len(p.data)) {
		return nil, errors.New("dng: IFD offset out of bounds")
	}
	count := int(p.order.Uint16(p.data[offset : offset+2]))
	end := offset + 2 + int64(count)*12
	if end > int64(len(p.data)) {
		return nil, errors.New("dng: truncated IFD")
	}

	out := make(ifd, count)
	for i := 0; i < count; i++ {
		base := offset + 2 + int64(i)*12
		e := ifdEntry{
			typ:   p.order.Uint16(p.data[base+2 : base+4]),
			count: p.order.Uint32(p.data[base+4 : base+8]),
		}
		copy(e.raw[:], p.data[base+8:base+12])
		out[p.order.Uint16(p.data[base:base+2])] = e
	}
	return out, nil
}

// findRawIFD locates the IFD holding the CFA image: the main image IFD
// in simple files, or one of the SubIFDs when a preview occupies IFD0.
func (p *parser) findRawIFD(ifd0 ifd) (ifd, error) {
	candidates := []ifd{ifd0}
	for _, off := range p.values(ifd0, tagSubIFDs) {
		sub, err := p.readIFD(int64(off))
		if err != nil {
			continue
		}
		candidates = append(candidates, sub)
	}
	for _, c := range candidates {
		if p.scalarValue(c, tagPhotometric) == photometricCFA {
			return c, nil
		}
	}
	return nil, errors.New("dng: no CFA raw image found")
}

func typeSize(typ uint16) int {
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9: // LONG, SLONG
		return 4
	case 5, 10: // RATIONAL, SRATIONAL
		return 8
	default:
		return 0
	}
}

// valueBytes returns the raw value bytes of an entry, following the
// offset indirection when the value does not fit in four bytes.
func (p *parser) valueBytes(e ifdEntry) []byte {
	size := typeSize(e.typ) * int(e.count)
	if size <= 0 {
		return nil
	}
	if size <= 4 {
		return e.raw[:size]
	}
	off := int(p.order.Uint32(e.raw[:]))
	if off+size > len(p.data) {
		return nil
	}
	return p.data[off : off+size]
}

// values reads an integer-typed entry as a slice of uint32.
func (p *parser) values(fd ifd, tag uint16) []uint32 {
	e, ok := fd[tag]
	if !ok {
		return nil
	}
	b := p.valueBytes(e)
	if b == nil {
		return nil
	}
	out := make([]uint32, 0, e.count)
	for i := uint32(0); i < e.count; i++ {
		switch e.typ {
		case 1:
			out = append(out, uint32(b[i]))
		case 3:
			out = append(out, uint32(p.order.Uint16(b[i*2:])))
		case 4:
			out = append(out, p.order.Uint32(b[i*4:]))
		default:
			return nil
		}
	}
	return out
}

func (p *parser) scalarValue(fd ifd, tag uint16) uint32 {
	v := p.values(fd, tag)
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// rationals reads a RATIONAL entry as float64 values.
func (p *parser) rationals(fd ifd, tag uint16) []float64 {
	e, ok := fd[tag]
	if !ok {
		return nil
	}
	if e.typ != 5 && e.typ != 10 {
		// Some writers store neutral values as SHORT/LONG.
		ints := p.values(fd, tag)
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out
	}
	b := p.valueBytes(e)
	if b == nil {
		return nil
	}
	out := make([]float64, 0, e.count)
	for i := uint32(0); i < e.count; i++ {
		num := p.order.Uint32(b[i*8:])
		den := p.order.Uint32(b[i*8+4:])
		if den == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, float64(num)/float64(den))
	}
	return out
}

func (p *parser) cfaPattern(raw ifd) ([2][2]int, error) {
	var pattern [2][2]int
	if dims := p.values(raw, tagCFAPatternDim); len(dims) == 2 {
		if dims[0] != 2 || dims[1] != 2 {
			return pattern, fmt.Errorf("dng: unsupported CFA repeat pattern %dx%d", dims[0], dims[1])
		}
	}
	vals := p.values(raw, tagCFAPattern)
	if len(vals) != 4 {
		return pattern, errors.New("dng: missing CFA pattern")
	}
	for i, v := range vals {
		if v > 2 {
			return pattern, fmt.Errorf("dng: CFA color %d not RGB", v)
		}
		pattern[i/2][i%2] = int(v)
	}
	return pattern, nil
}

// readStrips concatenates the image strips into one row-major sample
// slice, widening 8-bit data to the 16-bit working range.
func (p *parser) readStrips(raw ifd, width, height, bits int) ([]uint16, error) {
	offsets := p.values(raw, tagStripOffsets)
	counts := p.values(raw, tagStripByteCount)
	if len(offsets) == 0 {
		return nil, errors.New("dng: missing strip offsets")
	}
	if len(counts) != len(offsets) {
		return nil, errors.New("dng: strip offset/count mismatch")
	}

	need := width * height * bits / 8
	buf := make([]byte, 0, need)
	for i, off := range offsets {
		end := int(off) + int(counts[i])
		if int(off) > len(p.data) || end > len(p.data) {
			return nil, errors.New("dng: strip out of bounds")
		}
		buf = append(buf, p.data[off:end]...)
	}
	if len(buf) < need {
		return nil, fmt.Errorf("dng: raw data truncated: have %d bytes, need %d", len(buf), need)
	}

	samples := make([]uint16, width*height)
	if bits == 8 {
		for i := range samples {
			samples[i] = uint16(buf[i])
		}
	} else {
		for i := range samples {
			samples[i] = p.order.Uint16(buf[i*2:])
		}
	}
	return samples, nil
}

func (p *parser) levels(raw ifd, bits int) (black, white float64) {
	if bl := p.rationals(raw, tagBlackLevel); len(bl) > 0 {
		black = bl[0]
	}
	white = float64(p.scalarValue(raw, tagWhiteLevel))
	if white == 0 {
		if bits == 8 {
			white = 255
		} else {
			white = 65535
		}
	}
	return black, white
}

// whiteBalanceGains derives per-channel multipliers from AsShotNeutral,
// normalized so green stays at gain 1.
func (p *parser) whiteBalanceGains(ifd0 ifd) [3]float64 {
	gains := [3]float64{1, 1, 1}
	neutral := p.rationals(ifd0, tagAsShotNeutral)
	if len(neutral) != 3 || neutral[0] == 0 || neutral[1] == 0 || neutral[2] == 0 {
		return gains
	}
	for c := 0; c < 3; c++ {
		gains[c] = neutral[1] / neutral[c]
	}
	return gains
}

// demosaic reconstructs full RGB per pixel by averaging the nearest
// mosaic sites of each color in a 3x3 window, then applies white
// balance, level scaling and sRGB encoding.
func demosaic(samples []uint16, width, height int, pattern [2][2]int, black, white float64, gains [3]float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scale := white - black
	if scale <= 0 {
		scale = 1
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, n [3]float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx, sy := x+dx, y+dy
					if sx < 0 || sy < 0 || sx >= width || sy >= height {
						continue
					}
					c := pattern[sy%2][sx%2]
					sum[c] += float64(samples[sy*width+sx])
					n[c]++
				}
			}

			off := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := 0.0
				if n[c] > 0 {
					v = (sum[c]/n[c] - black) / scale
				}
				v *= gains[c]
				img.Pix[off+c] = srgb8(v)
			}
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

// srgb8 clamps a linear value to [0,1], applies the sRGB transfer curve
// and quantizes to 8 bits.
func srgb8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	if v <= 0.0031308 {
		v = 12.92 * v
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(math.Round(v * 255))
}
