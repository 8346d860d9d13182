package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxContent enthält Absätze im Textfluss und die Tabellen separat
type DocxContent struct {
	Paragraphs []string
	Tables     [][][]string
}

// ReadDocx liest word/document.xml aus einem .docx-Archiv
func ReadDocx(r io.ReaderAt, size int64) (*DocxContent, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("kein gültiges docx-Archiv: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("document.xml nicht lesbar: %w", err)
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}

	return nil, fmt.Errorf("docx ohne word/document.xml")
}

func parseDocumentXML(r io.Reader) (*DocxContent, error) {
	dec := xml.NewDecoder(r)
	out := &DocxContent{}

	var (
		para       strings.Builder
		paraDepth  int
		inText     bool
		tableDepth int
		table      [][]string
		row        []string
		cellParas  []string
	)

	endParagraph := func() {
		if tableDepth > 0 {
			cellParas = append(cellParas, para.String())
		} else {
			out.Paragraphs = append(out.Paragraphs, para.String())
		}
		para.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document.xml fehlerhaft: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					table = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cellParas = nil
				}
			case "p":
				if paraDepth == 0 {
					para.Reset()
				}
				paraDepth++
			case "t":
				inText = true
			case "tab":
				if paraDepth > 0 {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if paraDepth == 0 {
					continue
				}
				if isPageBreak(t) && tableDepth == 0 {
					// Harter Umbruch teilt den Absatz
					endParagraph()
					out.Paragraphs = append(out.Paragraphs, PageBreak)
					continue
				}
				para.WriteByte('\n')
			}

		case xml.CharData:
			if inText && paraDepth > 0 {
				para.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paraDepth--
				if paraDepth == 0 {
					endParagraph()
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(strings.Join(cellParas, "\n")))
				}
			case "tr":
				if tableDepth == 1 {
					table = append(table, row)
				}
			case "tbl":
				if tableDepth == 1 {
					out.Tables = append(out.Tables, table)
				}
				tableDepth--
			}
		}
	}

	return out, nil
}

func isPageBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" && a.Value == "page" {
			return true
		}
	}
	return false
}
