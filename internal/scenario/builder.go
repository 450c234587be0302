package scenario

import (
	"fmt"
	"strings"

	"ecclesia/internal/llm"
	"ecclesia/pkg/prompts"
)

type Variant string

const (
	// VariantInstruction describes the flat response shape in the prompt text
	// only and relies on a best-effort parse of the reply.
	VariantInstruction Variant = "instruction"
	// VariantSchema sends the nested response schema and asks for JSON output.
	VariantSchema Variant = "schema"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.TrimSpace(s)); v {
	case "":
		return VariantSchema, nil
	case VariantInstruction, VariantSchema:
		return v, nil
	default:
		return "", fmt.Errorf("unknown request variant %q", s)
	}
}

type Sampling struct {
	Temperature     float32
	MaxOutputTokens int32
}

type BuilderOptions struct {
	Prompts *prompts.Prompts
	Variant Variant
	// Sampling is fixed per variant.
	Sampling map[Variant]Sampling
}

var defaultSampling = map[Variant]Sampling{
	VariantInstruction: {Temperature: 0.1, MaxOutputTokens: 4096},
	VariantSchema:      {Temperature: 0.2, MaxOutputTokens: 8192},
}

type Builder struct {
	prompts  *prompts.Prompts
	variant  Variant
	sampling Sampling
}

func NewBuilder(opts BuilderOptions) *Builder {
	variant := opts.Variant
	if variant == "" {
		variant = VariantSchema
	}

	sampling, ok := opts.Sampling[variant]
	if !ok || sampling.MaxOutputTokens == 0 {
		sampling = defaultSampling[variant]
	}

	return &Builder{
		prompts:  opts.Prompts,
		variant:  variant,
		sampling: sampling,
	}
}

func (b *Builder) Variant() Variant {
	return b.variant
}

// Build renders the outbound call for req. req is not modified.
func (b *Builder) Build(req Request) (llm.Request, error) {
	if err := req.Validate(); err != nil {
		return llm.Request{}, err
	}

	model, _ := ParseModel(string(req.Model))
	lang, _ := ParseLanguage(string(req.Language))
	structured := b.variant == VariantSchema

	lines := make([]string, 0, len(req.Cuts))
	for i, cut := range req.Cuts {
		line, err := b.prompts.RenderCutLine(string(lang), prompts.CutLineParams{
			Number:      i + 1,
			Duration:    cut.Duration,
			Description: cut.Description,
		})
		if err != nil {
			return llm.Request{}, fmt.Errorf("render cut line: %w", err)
		}
		lines = append(lines, line)
	}

	body, err := b.prompts.RenderBody(structured, prompts.BodyParams{
		ProjectTitle:  req.ProjectTitle,
		Theme:         req.Theme,
		TotalDuration: req.TotalDuration,
		LanguageName:  b.prompts.Language(string(lang)),
		CutList:       strings.Join(lines, "\n"),
	})
	if err != nil {
		return llm.Request{}, fmt.Errorf("render prompt: %w", err)
	}

	return llm.Request{
		Model:           string(model),
		System:          b.prompts.SystemInstruction(structured),
		Prompt:          body,
		Temperature:     b.sampling.Temperature,
		MaxOutputTokens: b.sampling.MaxOutputTokens,
		Structured:      structured,
	}, nil
}
