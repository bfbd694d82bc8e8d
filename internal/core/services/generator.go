package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/munidoc-labs/amtsrag/internal/core/domain"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driven"
	"github.com/munidoc-labs/amtsrag/internal/core/ports/driving"
	"github.com/munidoc-labs/amtsrag/internal/logger"
)

// Ensure AnswerGenerator implements the port.
var _ driving.Generator = (*AnswerGenerator)(nil)

// citationPattern matches bracketed chunk references in model output.
var citationPattern = regexp.MustCompile(`\[([\w-]{4,})\]`)

const systemPrompt = `You are an assistant answering questions about municipal documents (statutes, fee schedules, council minutes, administrative notices).

Rules:
- Answer ONLY from the numbered context passages below. Do not use outside knowledge.
- After every statement, cite the passage it comes from using its id in square brackets, e.g. [%s].
- Reproduce fees, amounts and deadlines exactly as stated in the passages.
- Structure longer answers with numbered points or short tables.
- If the passages do not contain the information needed, reply exactly: %q
- Answer in the language of the question.`

// AnswerGenerator produces grounded answers over retrieved evidence.
// Decoding is deterministic (temperature 0) and every citation in
// the output is verified against the evidence actually supplied.
type AnswerGenerator struct {
	llm driven.LLMService

	maxTokens      int
	topP           float64
	contextBudget  int
	refusalMessage string
}

// GeneratorOption configures an AnswerGenerator.
type GeneratorOption func(*AnswerGenerator)

// WithMaxTokens bounds the answer length.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *AnswerGenerator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(p float64) GeneratorOption {
	return func(g *AnswerGenerator) {
		if p > 0 {
			g.topP = p
		}
	}
}

// WithContextBudget caps the evidence characters packed into the
// prompt.
func WithContextBudget(n int) GeneratorOption {
	return func(g *AnswerGenerator) {
		if n > 0 {
			g.contextBudget = n
		}
	}
}

// WithRefusalMessage overrides the refusal text.
func WithRefusalMessage(msg string) GeneratorOption {
	return func(g *AnswerGenerator) {
		if msg != "" {
			g.refusalMessage = msg
		}
	}
}

// NewAnswerGenerator creates a generator backed by the given model.
func NewAnswerGenerator(llm driven.LLMService, opts ...GeneratorOption) *AnswerGenerator {
	g := &AnswerGenerator{
		llm:            llm,
		maxTokens:      1024,
		topP:           0.9,
		contextBudget:  4000,
		refusalMessage: "No reliable information on this is available in the indexed documents.",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the constrained prompt and verifies the model's
// citations. An empty retrieval refuses without a model call. A
// timeout from the model is surfaced to the caller, never retried.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, result domain.RetrievalResult) (*domain.Answer, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	if result.Empty() {
		return &domain.Answer{
			Text:    g.refusalMessage,
			Refusal: true,
		}, nil
	}

	if g.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	evidence := g.packContext(result)
	if len(evidence) == 0 {
		return &domain.Answer{
			Text:    g.refusalMessage,
			Refusal: true,
		}, nil
	}

	messages := []driven.ChatMessage{
		{
			Role:    "system",
			Content: fmt.Sprintf(systemPrompt, evidence[0].Chunk.ID, g.refusalMessage),
		},
		{
			Role:    "user",
			Content: g.userPrompt(query, evidence),
		},
	}

	text, err := g.llm.Complete(ctx, messages, driven.CompleteOptions{
		MaxTokens:   g.maxTokens,
		Temperature: 0,
		TopP:        g.topP,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFault, err)
	}

	return g.verify(text, evidence), nil
}

// packContext selects evidence to fit the character budget. Shorter
// chunks first, so the budget buys more distinct passages; duplicate
// passages from the same document position are dropped. At least one
// passage is always packed, truncated if it alone exceeds the budget.
func (g *AnswerGenerator) packContext(result domain.RetrievalResult) []domain.ScoredChunk {
	candidates := make([]domain.ScoredChunk, len(result.Chunks))
	copy(candidates, result.Chunks)

	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i].Chunk.Text) < utf8.RuneCountInString(candidates[j].Chunk.Text)
	})

	seen := make(map[string]struct{}, len(candidates))
	var packed []domain.ScoredChunk
	used := 0

	for _, sc := range candidates {
		key := sc.Chunk.DocumentID + "\x00" + sc.Chunk.StructuralPath + "\x00" + sc.Chunk.Text
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		size := utf8.RuneCountInString(sc.Chunk.Text)
		if used+size > g.contextBudget {
			if len(packed) == 0 {
				runes := []rune(sc.Chunk.Text)
				if len(runes) > g.contextBudget {
					sc.Chunk.Text = string(runes[:g.contextBudget])
				}
				packed = append(packed, sc)
			}
			break
		}
		packed = append(packed, sc)
		used += size
	}

	// Restore rank order for the prompt; the model sees the best
	// evidence first.
	sort.SliceStable(packed, func(i, j int) bool {
		return packed[i].Score > packed[j].Score
	})

	return packed
}

// userPrompt renders the evidence passages and the question.
func (g *AnswerGenerator) userPrompt(query string, evidence []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for _, sc := range evidence {
		fmt.Fprintf(&b, "[%s] %s\n%s\n\n", sc.Chunk.ID, sc.Chunk.Citation(), sc.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

// verify checks every citation in the model output against the
// supplied evidence. Unknown ids are stripped and flag the answer as
// low-confidence; zero verified citations on a non-refusal answer
// does the same.
func (g *AnswerGenerator) verify(text string, evidence []domain.ScoredChunk) *domain.Answer {
	text = strings.TrimSpace(text)

	if g.isRefusal(text) {
		return &domain.Answer{
			Text:    g.refusalMessage,
			Refusal: true,
		}
	}

	known := make(map[string]domain.Chunk, len(evidence))
	for _, sc := range evidence {
		known[sc.Chunk.ID] = sc.Chunk
	}

	cited := make(map[string]struct{})
	lowConfidence := false

	verified := citationPattern.ReplaceAllStringFunc(text, func(match string) string {
		id := citationPattern.FindStringSubmatch(match)[1]
		if _, ok := known[id]; ok {
			cited[id] = struct{}{}
			return match
		}
		logger.Debug("stripping unverifiable citation %s", id)
		lowConfidence = true
		return ""
	})
	verified = strings.TrimSpace(verified)

	if len(cited) == 0 {
		lowConfidence = true
	}

	// Citations keep the evidence order supplied to the model.
	var citations []domain.Chunk
	for _, sc := range evidence {
		if _, ok := cited[sc.Chunk.ID]; ok {
			citations = append(citations, sc.Chunk)
		}
	}

	return &domain.Answer{
		Text:          verified,
		Citations:     citations,
		LowConfidence: lowConfidence,
	}
}

// isRefusal detects the instructed refusal phrasing, tolerating
// minor decoration around it.
func (g *AnswerGenerator) isRefusal(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(text))
	refusal := strings.ToLower(g.refusalMessage)
	return strings.Contains(normalized, refusal)
}
