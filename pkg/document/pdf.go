package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/arqalabs/arqa/pkg/chunk"
)

// loadPDF extracts per-page text from a PDF using pdfcpu. Each page becomes
// one paragraph block so page numbers survive into the chunk metadata.
// Figure/diagram OCR is out of scope; pages with no extractable text are
// skipped.
func loadPDF(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pdf %s: %v", ErrMalformed, path, err)
	}

	outDir, err := os.MkdirTemp("", "arqa-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("creating extraction dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("%w: extracting pdf content from %s: %v", ErrMalformed, path, err)
	}

	doc := &Document{
		Path: path,
		Name: filepath.Base(path),
	}

	for pageNum := 1; pageNum <= ctx.PageCount; pageNum++ {
		text := readExtractedPage(outDir, pageNum)
		if text == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, Block{
			Text: text,
			Kind: chunk.KindParagraph,
			Page: pageNum,
		})
	}

	return doc, nil
}

// readExtractedPage reads the content file pdfcpu wrote for the given page.
// pdfcpu has used a couple of naming schemes across releases; try both.
func readExtractedPage(outDir string, pageNum int) string {
	for _, name := range []string{
		fmt.Sprintf("Content_page_%d.txt", pageNum),
		fmt.Sprintf("page_%d.txt", pageNum),
	} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err == nil {
			return string(data)
		}
	}
	return ""
}
