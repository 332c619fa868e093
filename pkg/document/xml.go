package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arqalabs/arqa/pkg/chunk"
)

// walkXML streams an XML file and calls visit once per element with its
// slash-joined path (namespaces stripped), attributes and trimmed character
// data. Visits happen in end-element order, which is deterministic for a
// given file.
func walkXML(path string, visit func(elemPath string, attrs []xml.Attr, text string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	type frame struct {
		path  string
		attrs []xml.Attr
		text  strings.Builder
	}

	dec := xml.NewDecoder(f)
	var stack []*frame

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: parsing %s: %v", ErrMalformed, path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elemPath := t.Name.Local
			if len(stack) > 0 {
				elemPath = stack[len(stack)-1].path + "/" + elemPath
			}
			copied := t.Copy()
			stack = append(stack, &frame{path: elemPath, attrs: copied.Attr})

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			visit(fr.path, fr.attrs, strings.TrimSpace(fr.text.String()))
		}
	}

	if len(stack) != 0 {
		return fmt.Errorf("%w: %s has unclosed elements", ErrMalformed, path)
	}

	return nil
}

// loadARXML extracts every text-bearing element of an AUTOSAR XML file as one
// block of the form "SHORT-NAME path: text".
func loadARXML(path string) (*Document, error) {
	doc := &Document{
		Path: path,
		Name: filepath.Base(path),
	}

	err := walkXML(path, func(elemPath string, _ []xml.Attr, text string) {
		if text == "" {
			return
		}
		doc.Blocks = append(doc.Blocks, Block{
			Text: fmt.Sprintf("%s: %s", elemPath, text),
			Kind: chunk.KindArxml,
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// loadCDD extracts every element of a diagnostic configuration XML file that
// carries text or attributes.
func loadCDD(path string) (*Document, error) {
	doc := &Document{
		Path: path,
		Name: filepath.Base(path),
	}

	err := walkXML(path, func(elemPath string, attrs []xml.Attr, text string) {
		rendered := make([]string, 0, len(attrs))
		for _, a := range attrs {
			rendered = append(rendered, fmt.Sprintf("%s=%s", a.Name.Local, a.Value))
		}
		attrText := strings.Join(rendered, ", ")
		if text == "" && attrText == "" {
			return
		}
		doc.Blocks = append(doc.Blocks, Block{
			Text: fmt.Sprintf("Path: %s\nAttributes: %s\nText: %s", elemPath, attrText, text),
			Kind: chunk.KindCdd,
		})
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}
