// Package source turns frame references into canonical pixel buffers:
// 8-bit opaque RGB, whatever the source format was.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
)

// Decoder resolves one source reference into a canonical buffer.
type Decoder interface {
	Decode(ctx context.Context, ref string) (*image.RGBA, error)
}

// DecodeError reports an unreadable, corrupt or unrecognized source.
type DecodeError struct {
	Ref   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Ref, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

var ErrUnsupported = errors.New("unrecognized source format")

var stillExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

// IsRaw reports whether a reference points at a raw-sensor source.
func IsRaw(ref string) bool {
	path, _ := SplitPageRef(ref)
	return strings.EqualFold(filepath.Ext(path), ".dng")
}

// PageRef builds a reference to one page of a multi-page document.
func PageRef(path string, page int) string {
	return fmt.Sprintf("%s#%d", path, page)
}

// SplitPageRef splits "doc.pdf#3" into the file path and 1-based page
// number. Plain references return page 1.
func SplitPageRef(ref string) (string, int) {
	i := strings.LastIndex(ref, "#")
	if i < 0 {
		return ref, 1
	}
	page, err := strconv.Atoi(ref[i+1:])
	if err != nil || page < 1 {
		return ref, 1
	}
	return ref[:i], page
}

// FileDecoder decodes references from the local filesystem.
type FileDecoder struct{}

func (FileDecoder) Decode(ctx context.Context, ref string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, page := SplitPageRef(ref)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".dng":
		return decodeRaw(ref, path)
	case ext == ".pdf":
		return decodePDFPage(ref, path, page)
	case stillExts[ext]:
		return decodeStill(ref, path)
	default:
		return nil, &DecodeError{Ref: ref, Cause: ErrUnsupported}
	}
}

// Expand probes one user-supplied path and returns the frame references
// it contributes: one per file for stills and raw sources, one per page
// for PDF documents. Probing is cheap (headers only) so a multi-path
// add can validate its whole input list before mutating anything.
func Expand(path string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".dng":
		if err := probeRaw(path); err != nil {
			return nil, &DecodeError{Ref: path, Cause: err}
		}
		return []string{path}, nil
	case ext == ".pdf":
		return expandPDF(path)
	case stillExts[ext]:
		if err := probeStill(path); err != nil {
			return nil, &DecodeError{Ref: path, Cause: err}
		}
		return []string{path}, nil
	default:
		return nil, &DecodeError{Ref: path, Cause: ErrUnsupported}
	}
}
