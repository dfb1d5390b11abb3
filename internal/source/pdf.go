package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// pdfDPI is the rasterization density for PDF-backed frames.
const pdfDPI = 150

// decodePDFPage renders one page of a PDF document. A fresh document is
// opened per call so pages of the same file can decode in parallel.
func decodePDFPage(ref, path string, page int) (*image.RGBA, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Cause: err}
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, &DecodeError{Ref: ref, Cause: fmt.Errorf("page %d out of range [1,%d]", page, doc.NumPage())}
	}

	img, err := doc.ImageDPI(page-1, pdfDPI)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Cause: err}
	}
	return Flatten(img), nil
}

// expandPDF turns a document path into one reference per page, in page
// order.
func expandPDF(path string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &DecodeError{Ref: path, Cause: err}
	}
	defer doc.Close()

	n := doc.NumPage()
	if n == 0 {
		return nil, &DecodeError{Ref: path, Cause: fmt.Errorf("document has no pages")}
	}

	refs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		refs = append(refs, PageRef(path, i))
	}
	return refs, nil
}
