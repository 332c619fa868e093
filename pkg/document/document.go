// Package document loads heterogeneous AUTOSAR source files into a uniform
// block shape the ingestion pipeline consumes. Supported formats: plain text
// and markdown, PDF, CAN database (.dbc), diagnostic configuration XML
// (.cdd) and AUTOSAR XML (.arxml).
package document

import "github.com/arqalabs/arqa/pkg/chunk"

// Block is one raw content unit extracted from a source file, tagged with the
// chunk kind that selects its token budget downstream.
type Block struct {
	// Text is the raw extracted content. It may span many headings; the
	// segmenter owns further splitting.
	Text string

	// Kind classifies the block's origin.
	Kind chunk.Kind

	// Page is the 1-based source page for page-oriented formats, 0 otherwise.
	Page int
}

// Document is an immutable loaded source file.
type Document struct {
	// Path is the file path the document was loaded from.
	Path string

	// Name is the display name (base filename).
	Name string

	// Blocks are the ordered raw content units.
	Blocks []Block
}
