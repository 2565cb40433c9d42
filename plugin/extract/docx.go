package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	wordNS         = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	markupCompatNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	documentPart   = "word/document.xml"
)

// extractDOCX emits each w:p paragraph's text followed by "\n" in document order.
func extractDOCX(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractionError{Kind: DOCX, Err: err}
	}

	part, err := zr.Open(documentPart)
	if err != nil {
		return "", &ExtractionError{Kind: DOCX, Err: fmt.Errorf("open %s: %w", documentPart, err)}
	}
	defer part.Close()

	text, err := paragraphText(part)
	if err != nil {
		return "", &ExtractionError{Kind: DOCX, Err: err}
	}
	return text, nil
}

// paragraphText walks document.xml. Text box content (w:txbxContent, plus the
// mc:Fallback copy Word writes next to it) belongs to drawings anchored in a
// run, not to the body, and is skipped, so paragraphs never nest.
func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    strings.Builder
		para   *strings.Builder
		inText bool
		inRun  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if skipped(el.Name) {
				if err := dec.Skip(); err != nil {
					return "", fmt.Errorf("parse %s: %w", documentPart, err)
				}
				continue
			}
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "p":
				para = &strings.Builder{}
			case "r":
				inRun++
			case "t":
				inText = true
			case "tab":
				if inRun > 0 && para != nil {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 && para != nil {
					para.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if el.Name.Space != wordNS {
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun--
			case "p":
				if para == nil {
					continue
				}
				out.WriteString(para.String())
				out.WriteByte('\n')
				para = nil
			}
		case xml.CharData:
			if inText && para != nil {
				para.Write(el)
			}
		}
	}

	return out.String(), nil
}

func skipped(name xml.Name) bool {
	switch {
	case name.Space == wordNS && name.Local == "txbxContent":
		return true
	case name.Space == markupCompatNS && name.Local == "Fallback":
		return true
	}
	return false
}
