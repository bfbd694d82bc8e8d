package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		ext     string
		want    Format
		wantErr bool
	}{
		{ext: "pdf", want: FormatPDF},
		{ext: ".pdf", want: FormatPDF},
		{ext: ".PDF", want: FormatPDF},
		{ext: "docx", want: FormatDOCX},
		{ext: ".xlsx", want: FormatXLSX},
		{ext: "xlsm", want: FormatXLSM},
		{ext: "txt", want: FormatTXT},
		{ext: "html", wantErr: true},
		{ext: "", wantErr: true},
		{ext: ".exe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, err := ParseFormat(tt.ext)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkCitation(t *testing.T) {
	withPath := Chunk{DocumentName: "satzung.pdf", StructuralPath: "§ 12 Abs. 2", SequenceIndex: 7}
	assert.Equal(t, "satzung.pdf (§ 12 Abs. 2)", withPath.Citation())

	withoutPath := Chunk{DocumentName: "protokoll.docx", SequenceIndex: 3}
	assert.Equal(t, "protokoll.docx (chunk 3)", withoutPath.Citation())
}

func TestRetrievalResultHelpers(t *testing.T) {
	empty := RetrievalResult{Query: "Frage"}
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.ChunkIDs())
	assert.False(t, empty.Contains("x"))

	result := RetrievalResult{
		Query: "Frage",
		Chunks: []ScoredChunk{
			{Chunk: Chunk{ID: "a"}},
			{Chunk: Chunk{ID: "b"}},
		},
	}
	assert.False(t, result.Empty())
	assert.Equal(t, []string{"a", "b"}, result.ChunkIDs())
	assert.True(t, result.Contains("b"))
	assert.False(t, result.Contains("c"))
}

func TestExtractionError(t *testing.T) {
	cause := errors.New("no text layer")
	err := &ExtractionError{DocumentID: "doc-1", DocumentName: "scan.pdf", Err: cause}

	assert.Contains(t, err.Error(), "doc-1")
	assert.Contains(t, err.Error(), "scan.pdf")
	assert.ErrorIs(t, err, cause)

	bare := &ExtractionError{DocumentID: "doc-2", DocumentName: "leer.pdf"}
	assert.Contains(t, bare.Error(), "doc-2")
	assert.Nil(t, bare.Unwrap())
}

func TestBuildReportFailed(t *testing.T) {
	assert.False(t, BuildReport{}.Failed())
	assert.True(t, BuildReport{Failures: []ExtractionError{{DocumentID: "d"}}}.Failed())
}
