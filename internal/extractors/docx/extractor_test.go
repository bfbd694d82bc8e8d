package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	w.Close()
	return buf.Bytes()
}

func docxDoc(content []byte) *domain.Document {
	return &domain.Document{
		ID:      "doc-1",
		Name:    "protokoll.docx",
		Format:  domain.FormatDOCX,
		Content: content,
	}
}

func TestSupportedFormats(t *testing.T) {
	e := New()
	assert.Equal(t, []domain.Format{domain.FormatDOCX}, e.SupportedFormats())
}

func TestExtractNilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractParagraphs(t *testing.T) {
	documentXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Niederschrift der Ratssitzung</w:t></w:r></w:p>
<w:p><w:r><w:t>TOP 1: </w:t></w:r><w:r><w:t>Haushaltssatzung</w:t></w:r></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>
<w:p><w:r><w:t>TOP 2: Gebührenordnung</w:t></w:r></w:p>
</w:body>
</w:document>`

	text, err := New().Extract(context.Background(), docxDoc(createTestDOCX(documentXML)))
	require.NoError(t, err)

	assert.Equal(t, "Niederschrift der Ratssitzung\nTOP 1: Haushaltssatzung\nTOP 2: Gebührenordnung", text)
}

func TestExtractMissingDocumentXML(t *testing.T) {
	text, err := New().Extract(context.Background(), docxDoc(createTestDOCX("")))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractNotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), docxDoc([]byte("definitely not a zip archive")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractMalformedXML(t *testing.T) {
	text, err := New().Extract(context.Background(), docxDoc(createTestDOCX("<w:document><unclosed")))
	require.NoError(t, err)
	assert.Empty(t, text)
}
