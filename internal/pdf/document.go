package pdf

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// Page exposes the two things extraction needs from a PDF page: its
// embedded text layer and a bitmap render for OCR.
type Page interface {
	// Text returns the page's text layer; empty when the page has none.
	Text() (string, error)
	// Render rasterizes the page at the given resolution.
	Render(dpi float64) (image.Image, error)
}

// Document is an ordered sequence of pages.
type Document interface {
	NumPages() int
	Page(i int) Page
	Close() error
}

// Opener yields a Document for a file path. Production code uses OpenFitz;
// tests substitute fakes.
type Opener func(path string) (Document, error)

type fitzDocument struct {
	doc *fitz.Document
}

type fitzPage struct {
	doc *fitz.Document
	n   int
}

// OpenFitz opens a PDF through MuPDF.
func OpenFitz(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPages() int   { return d.doc.NumPage() }
func (d *fitzDocument) Page(i int) Page { return &fitzPage{doc: d.doc, n: i} }
func (d *fitzDocument) Close() error    { return d.doc.Close() }

func (p *fitzPage) Text() (string, error) {
	return p.doc.Text(p.n)
}

func (p *fitzPage) Render(dpi float64) (image.Image, error) {
	return p.doc.ImageDPI(p.n, dpi)
}
