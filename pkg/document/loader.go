package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arqalabs/arqa/pkg/chunk"
)

// Load reads the file at path and extracts its content blocks. The format is
// selected by extension. Unrecognized extensions return ErrUnsupportedFormat;
// recognized formats that fail to parse return ErrMalformed. Both are
// per-document conditions, batch ingestion skips the document and continues.
func Load(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return loadText(path)
	case ".pdf":
		return loadPDF(path)
	case ".dbc":
		return loadDBC(path)
	case ".cdd":
		return loadCDD(path)
	case ".arxml":
		return loadARXML(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// loadText reads a plain text or markdown file as a single paragraph block.
// Markdown heading markers stay in the text; the segmenter splits on them.
func loadText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &Document{
		Path: path,
		Name: filepath.Base(path),
		Blocks: []Block{
			{Text: string(data), Kind: chunk.KindParagraph},
		},
	}, nil
}
