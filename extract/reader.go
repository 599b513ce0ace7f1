package extract

import (
	"archive/zip"
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrReaderUnavailable is returned by readers that cannot parse documents
// in the current build or configuration.
var ErrReaderUnavailable = errors.New("document reader unavailable")

// DocumentReader returns the paragraphs of a description document in order.
// Paragraphs may be blank; the extractor drops them.
type DocumentReader interface {
	ReadLines(path string) ([]string, error)
}

// Unavailable is a DocumentReader that always fails with ErrReaderUnavailable.
type Unavailable struct{}

func (Unavailable) ReadLines(string) ([]string, error) {
	return nil, ErrReaderUnavailable
}

// TextReader reads UTF-8 text files, one paragraph per line.
type TextReader struct{}

func (TextReader) ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimPrefix(sc.Text(), "\ufeff"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// DocxReader reads the body paragraphs of an Office Open XML document.
type DocxReader struct{}

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func (DocxReader) ReadLines(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		return paragraphs(rc)
	}
	return nil, fmt.Errorf("open docx: %s has no word/document.xml", filepath.Base(path))
}

// paragraphs streams document.xml and collects the text of every w:p.
func paragraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines []string
		cur   strings.Builder
		inP   bool
		inT   bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document part: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inP = true
				cur.Reset()
			case "t":
				inT = true
			case "tab":
				if inP {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if inP {
					cur.WriteByte(' ')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				lines = append(lines, cur.String())
				inP = false
			case "t":
				inT = false
			}
		case xml.CharData:
			if inP && inT {
				cur.Write(t)
			}
		}
	}
	return lines, nil
}

// ExtReader picks a reader by lowercased file extension.
type ExtReader map[string]DocumentReader

// DefaultReaders handles .docx and .txt descriptions.
func DefaultReaders() ExtReader {
	return ExtReader{
		".docx": DocxReader{},
		".txt":  TextReader{},
	}
}

func (m ExtReader) ReadLines(path string) ([]string, error) {
	r, ok := m[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: no reader for %q", ErrReaderUnavailable, filepath.Ext(path))
	}
	return r.ReadLines(path)
}
