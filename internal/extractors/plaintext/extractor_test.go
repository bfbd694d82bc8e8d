package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
)

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatTXT}, New().SupportedFormats())
}

func TestExtract(t *testing.T) {
	doc := &domain.Document{
		ID:      "doc-1",
		Name:    "bekanntmachung.txt",
		Format:  domain.FormatTXT,
		Content: []byte("Öffentliche Bekanntmachung\nDie Satzung tritt in Kraft."),
	}

	text, err := New().Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "Öffentliche Bekanntmachung\nDie Satzung tritt in Kraft.", text)
}

func TestExtractNilDocument(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
