package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

func createTestXLSX(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, cell))
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf.Bytes()
}

func xlsxDoc(content []byte) *domain.Document {
	return &domain.Document{
		ID:      "doc-1",
		Name:    "gebuehren.xlsx",
		Format:  domain.FormatXLSX,
		Content: content,
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := New().SupportedFormats()
	assert.Contains(t, formats, domain.FormatXLSX)
	assert.Contains(t, formats, domain.FormatXLSM)
	assert.Contains(t, formats, domain.FormatXLS)
}

func TestExtractNilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractRowsJoinedWithSeparator(t *testing.T) {
	content := createTestXLSX(t, [][]string{
		{"Leistung", "Gebühr"},
		{"Meldebescheinigung", "10,00 EUR"},
		{"", ""},
		{"Führungszeugnis", "13,00 EUR"},
	})

	text, err := New().Extract(context.Background(), xlsxDoc(content))
	require.NoError(t, err)

	assert.Equal(t,
		"Leistung | Gebühr\nMeldebescheinigung | 10,00 EUR\nFührungszeugnis | 13,00 EUR",
		text)
}

func TestExtractSkipsEmptyCells(t *testing.T) {
	content := createTestXLSX(t, [][]string{
		{"Meldebescheinigung", "", "10,00 EUR"},
	})

	text, err := New().Extract(context.Background(), xlsxDoc(content))
	require.NoError(t, err)
	assert.Equal(t, "Meldebescheinigung | 10,00 EUR", text)
}

func TestExtractNotASpreadsheet(t *testing.T) {
	_, err := New().Extract(context.Background(), xlsxDoc([]byte("plain text, not a workbook")))
	assert.Error(t, err)
}
