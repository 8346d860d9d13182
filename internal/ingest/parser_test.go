package ingest

import (
	"archive/zip"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>CHAPTER 3: Fractions and Decimals</w:t></w:r></w:p>
<w:p><w:r><w:t>📖 Page 1</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">A fraction has a </w:t></w:r><w:r><w:t>numerator.</w:t></w:r></w:p>
<w:p><w:r><w:t>Before break</w:t></w:r><w:r><w:br w:type="page"/></w:r><w:r><w:t>After break</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Fraction</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Decimal</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>1/2</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>0.5</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>Line one</w:t></w:r><w:r><w:br/></w:r><w:r><w:t>line two</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestReadDocx(t *testing.T) {
	data := buildDocx(t, testDocumentXML)

	doc, err := ReadDocx(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CHAPTER 3: Fractions and Decimals",
		"📖 Page 1",
		"A fraction has a numerator.",
		"Before break",
		PageBreak,
		"After break",
		"Line one\nline two",
	}, doc.Paragraphs)
	assert.Equal(t, [][][]string{{{"Fraction", "Decimal"}, {"1/2", "0.5"}}}, doc.Tables)
}

func TestReadDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ReadDocx(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.Error(t, err)
}

func TestParseDocx(t *testing.T) {
	p := NewParser()
	res, err := p.Parse("lesson.docx", buildDocx(t, testDocumentXML))
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	assert.Equal(t, PageContent{Number: 1, Content: "CHAPTER 3: Fractions and Decimals"}, res.Pages[0])
	assert.Equal(t, PageContent{Number: 2, Content: "A fraction has a numerator.\nBefore break"}, res.Pages[1])
	assert.Equal(t, 3, res.Pages[2].Number)
	assert.Equal(t, "After break\nLine one\nline two\n\nTable Content:\nFraction | Decimal\n1/2 | 0.5", res.Pages[2].Content)
	assert.Equal(t, "CHAPTER 3: Fractions and Decimals", res.Title)
	assert.Equal(t, "Maths", res.Subject)
}

func TestParseDispatch(t *testing.T) {
	p := NewParser()

	t.Run("plain text", func(t *testing.T) {
		res, err := p.Parse("notes.TXT", []byte("Plants need sunlight.\n\nThey make food."))
		require.NoError(t, err)
		require.Len(t, res.Pages, 1)
		assert.Equal(t, "Science", res.Subject)
	})

	t.Run("image placeholder", func(t *testing.T) {
		res, err := p.Parse("worksheet.png", []byte{0x89, 0x50})
		require.NoError(t, err)
		require.Len(t, res.Pages, 1)
		assert.Contains(t, res.Pages[0].Content, "Image uploaded: worksheet.png")
		assert.Equal(t, "worksheet", res.Title)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := p.Parse("virus.exe", []byte("MZ"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := p.Parse("empty.txt", []byte("   \n\n "))
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("broken docx", func(t *testing.T) {
		_, err := p.Parse("broken.docx", []byte("not a zip"))
		assert.Error(t, err)
	})
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.docx"))
	assert.True(t, SupportedExtension("b.JPEG"))
	assert.False(t, SupportedExtension("c.doc"))
	assert.False(t, SupportedExtension("noext"))
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 5, CountWords("A fraction, like 1/2!"))
	assert.Equal(t, 2, CountWords("नमस्ते दुनिया"))
}

func TestExtractMetadata(t *testing.T) {
	title, subject := ExtractMetadata([]string{"short", "Our computer lab has twenty machines"})
	assert.Equal(t, "Our computer lab has twenty machines", title)
	assert.Equal(t, "IT-Computers", subject)

	title, subject = ExtractMetadata(nil)
	assert.Equal(t, "Untitled Document", title)
	assert.Empty(t, subject)
}

func TestResultDocument(t *testing.T) {
	uploaded := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	res := &Result{
		Pages: []PageContent{
			{Number: 1, Content: "Plants need water."},
			{Number: 2, Content: "Leaves make food for the plant."},
		},
		Title:   "Lesson 2: Plants",
		Subject: "Science",
	}

	t.Run("guessed values fill gaps", func(t *testing.T) {
		doc := res.Document(DocumentMeta{ID: "doc-1", Filename: "doc-1.txt", UploadedAt: uploaded})
		assert.Equal(t, "Lesson 2: Plants", doc.LessonTitle)
		assert.Equal(t, "Science", doc.Subject)
		assert.Equal(t, 2, doc.TotalPages)
		require.Len(t, doc.Pages, 2)
		assert.Equal(t, 3, doc.Pages[0].WordCount)
		assert.Equal(t, 2, doc.Pages[1].PageNumber)
		assert.Equal(t, uploaded, doc.Pages[1].CreatedAt)
	})

	t.Run("given values win", func(t *testing.T) {
		doc := res.Document(DocumentMeta{
			ID:            "doc-2",
			Subject:       "EVS",
			LessonTitle:   "  Green Friends ",
			ChapterNumber: " 4 ",
		})
		assert.Equal(t, "Green Friends", doc.LessonTitle)
		assert.Equal(t, "EVS", doc.Subject)
		assert.Equal(t, "4", doc.ChapterNumber)
	})
}
