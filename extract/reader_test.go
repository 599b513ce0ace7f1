package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDocx builds a minimal .docx with one w:p per paragraph. A paragraph
// containing "|" is split into separate runs at that character.
func writeDocx(t *testing.T, dir string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(dir, "description.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p>")
		for _, run := range strings.Split(p, "|") {
			body.WriteString(`<w:r><w:t xml:space="preserve">` + run + `</w:t></w:r>`)
		}
		body.WriteString("</w:p>")
	}
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestDocxReader_ReadLines(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "DOOR-001", "", "Біле |скло", "Покриття: шпон")

	lines, err := DocxReader{}.ReadLines(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"DOOR-001", "", "Біле скло", "Покриття: шпон"}, lines)
}

func TestDocxReader_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "description.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := DocxReader{}.ReadLines(path)

	assert.Error(t, err)
}

func TestDocxReader_MissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "description.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	_, err = zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = DocxReader{}.ReadLines(path)

	assert.ErrorContains(t, err, "word/document.xml")
}

func TestTextReader_ReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "description.txt")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffDOOR-7\n\nДуб\n"), 0o644))

	lines, err := TextReader{}.ReadLines(path)

	require.NoError(t, err)
	assert.Equal(t, []string{"DOOR-7", "", "Дуб"}, lines)
}

func TestExtReader_Dispatch(t *testing.T) {
	dir := t.TempDir()
	docx := writeDocx(t, dir, "A")
	txt := filepath.Join(dir, "notes.TXT")
	require.NoError(t, os.WriteFile(txt, []byte("B"), 0o644))

	readers := DefaultReaders()

	lines, err := readers.ReadLines(docx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, lines)

	lines, err = readers.ReadLines(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, lines)

	_, err = readers.ReadLines(filepath.Join(dir, "description.pdf"))
	assert.ErrorIs(t, err, ErrReaderUnavailable)
}

func TestExtract_DocxEndToEnd(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "DOOR-001", "Біле скло", "Покриття ПВХ", "Праве відкривання")
	e := New(DefaultReaders(), UkrainianVocabulary(), DefaultPolicy())

	d := e.Extract(path)

	assert.Equal(t, "DOOR-001", d.SKU)
	assert.True(t, d.HasGlass)
	require.NotNil(t, d.GlassLabel)
	assert.Equal(t, "Біле скло", *d.GlassLabel)
	require.NotNil(t, d.Covering)
	assert.Equal(t, "Покриття ПВХ", *d.Covering)
	assert.True(t, d.HasOrientation)
	assert.Equal(t, "DOOR-001", d.Summary)
	assert.Len(t, d.Details, 4)
}
