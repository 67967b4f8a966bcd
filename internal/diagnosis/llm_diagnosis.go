package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/laesemaskine/internal/llm"
)

// ReviewerConfig holds configuration for the LLM dispute reviewer.
type ReviewerConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultReviewerConfig returns sensible defaults.
func DefaultReviewerConfig() ReviewerConfig {
	return ReviewerConfig{
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// Verdict says who the reviewer blames for a disputed result.
type Verdict string

const (
	VerdictRecognizer Verdict = "recognizer"
	VerdictReader     Verdict = "reader"
	VerdictUnclear    Verdict = "unclear"
)

// Reviewer asks an LLM to adjudicate disputed results.
type Reviewer struct {
	provider llm.Provider
	cfg      ReviewerConfig
}

// NewReviewer creates an LLM-based dispute reviewer.
func NewReviewer(provider llm.Provider, cfg ReviewerConfig) *Reviewer {
	return &Reviewer{provider: provider, cfg: cfg}
}

// ReviewRequest is the input for a dispute review.
type ReviewRequest struct {
	DisputeID  int64
	Expected   string
	Recognized string
	ErrorType  ErrorType
	Note       string
}

// Review is the reviewer's verdict.
type Review struct {
	DisputeID  int64
	Verdict    Verdict
	ErrorType  ErrorType
	Confidence float64
	Reasoning  string
}

type reviewOutput struct {
	Verdict    string  `json:"verdict"`
	ErrorType  *string `json:"error_type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Review sends a disputed result to the LLM.
func (r *Reviewer) Review(ctx context.Context, req *ReviewRequest) (*Review, error) {
	ctx = llm.WithPurpose(ctx, "dispute-review")

	userMsg, err := buildReviewMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build review prompt: %w", err)
	}

	resp, err := r.provider.Generate(ctx, llm.Request{
		System: reviewSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      ReviewSchema,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM review failed: %w", err)
	}

	var raw reviewOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse review response: %w", err)
	}

	out := &Review{
		DisputeID:  req.DisputeID,
		Verdict:    Verdict(raw.Verdict),
		ErrorType:  req.ErrorType,
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
	}
	switch out.Verdict {
	case VerdictRecognizer, VerdictReader, VerdictUnclear:
	default:
		out.Verdict = VerdictUnclear
	}
	// An error type outside the taxonomy is ignored.
	if raw.ErrorType != nil && ErrorType(*raw.ErrorType).Valid() {
		out.ErrorType = ErrorType(*raw.ErrorType)
	}
	if out.Verdict == VerdictRecognizer {
		out.ErrorType = ""
	}
	return out, nil
}

const reviewSystemPrompt = `You are an experienced Danish reading teacher. A child read a single Danish word aloud, a speech recognizer transcribed it, and the word was marked wrong. The child or teacher disputes the result.

Instructions:
- Decide whether the recognizer most likely misheard a correct reading (recognizer), the child misread the word (reader), or it cannot be decided (unclear).
- Consider how Danish speech recognizers commonly mishear short words, soft d, stød and unstressed endings.
- When the verdict is reader, choose error_type from: missing_ending, extra_ending, near_match, vowel_swap, cluster_issue, other. Otherwise return null.
- Keep reasoning to one sentence in Danish.`

var reviewUserTemplate = template.Must(template.New("review").Parse(`Expected word: {{.Expected}}
Recognized: {{if .Recognized}}{{.Recognized}}{{else}}(nothing){{end}}
Rule-based error type: {{if .ErrorType}}{{.ErrorType}}{{else}}(none){{end}}
{{if .Note}}Note from the dispute: {{.Note}}
{{end}}`))

func buildReviewMessage(req *ReviewRequest) (string, error) {
	var buf bytes.Buffer
	if err := reviewUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
