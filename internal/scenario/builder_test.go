package scenario

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"ecclesia/pkg/prompts"
)

func testPrompts(t *testing.T) *prompts.Prompts {
	t.Helper()
	p, err := prompts.Default()
	if err != nil {
		t.Fatalf("prompts.Default() error = %v", err)
	}
	return p
}

func testRequest() Request {
	return Request{
		ProjectTitle:  "The Garden",
		Theme:         "Matthew 26:36",
		TotalDuration: 40,
		Cuts: []Cut{
			{ID: "a", Duration: 30, Description: "olive trees,night"},
			{ID: "b", Duration: 10, Description: "prayer"},
		},
		Model:    ModelPro,
		Language: English,
	}
}

func TestBuildVariants(t *testing.T) {
	tests := []struct {
		name           string
		variant        Variant
		wantStructured bool
		wantTemp       float32
		wantTokens     int32
		wantInBody     []string
	}{
		{
			name:           "instruction",
			variant:        VariantInstruction,
			wantStructured: false,
			wantTemp:       0.1,
			wantTokens:     4096,
			wantInBody:     []string{"Cut 1: 30s, 'olive trees', 'night'", "Cut 2: 10s, 'prayer'", `"narration_text"`, "Total Length: 40 seconds"},
		},
		{
			name:           "schema",
			variant:        VariantSchema,
			wantStructured: true,
			wantTemp:       0.2,
			wantTokens:     8192,
			wantInBody:     []string{"Cut 1: 30s", "Bible Verse: Matthew 26:36"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(BuilderOptions{Prompts: testPrompts(t), Variant: tt.variant})
			got, err := b.Build(testRequest())
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			if got.Structured != tt.wantStructured {
				t.Errorf("Structured = %v, want %v", got.Structured, tt.wantStructured)
			}
			if got.Model != string(ModelPro) {
				t.Errorf("Model = %q, want %q", got.Model, ModelPro)
			}
			if got.Temperature != tt.wantTemp || got.MaxOutputTokens != tt.wantTokens {
				t.Errorf("sampling = %v/%d, want %v/%d", got.Temperature, got.MaxOutputTokens, tt.wantTemp, tt.wantTokens)
			}
			if got.System == "" {
				t.Error("System is empty")
			}
			for _, want := range tt.wantInBody {
				if !strings.Contains(got.Prompt, want) {
					t.Errorf("Prompt missing %q:\n%s", want, got.Prompt)
				}
			}
		})
	}
}

func TestBuildSystemInstructionIsFixed(t *testing.T) {
	b := NewBuilder(BuilderOptions{Prompts: testPrompts(t), Variant: VariantInstruction})

	first, err := b.Build(testRequest())
	if err != nil {
		t.Fatal(err)
	}

	other := testRequest()
	other.ProjectTitle = "Another"
	other.Language = Korean
	second, err := b.Build(other)
	if err != nil {
		t.Fatal(err)
	}

	if first.System != second.System {
		t.Error("system instruction changed between calls")
	}
	if first.Prompt == second.Prompt {
		t.Error("per-call body did not change")
	}
}

func TestBuildLocalizesCutList(t *testing.T) {
	b := NewBuilder(BuilderOptions{Prompts: testPrompts(t), Variant: VariantInstruction})

	req := testRequest()
	req.Language = Korean
	got, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, want := range []string{"1컷: 30초", "2컷: 10초", "Korean"} {
		if !strings.Contains(got.Prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	b := NewBuilder(BuilderOptions{Prompts: testPrompts(t)})
	req := testRequest()
	before := testRequest()

	if _, err := b.Build(req); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(req, before) {
		t.Errorf("Build() mutated request: %+v", req)
	}
}

func TestBuildDefaults(t *testing.T) {
	b := NewBuilder(BuilderOptions{Prompts: testPrompts(t)})
	if b.Variant() != VariantSchema {
		t.Errorf("default variant = %q, want schema", b.Variant())
	}

	req := testRequest()
	req.Model = ""
	req.Language = ""
	got, err := b.Build(req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got.Model != string(ModelFlash) {
		t.Errorf("Model = %q, want flash", got.Model)
	}
	if !strings.Contains(got.Prompt, "1컷") {
		t.Error("default language should be Korean")
	}
}

func TestBuildCustomSampling(t *testing.T) {
	b := NewBuilder(BuilderOptions{
		Prompts: testPrompts(t),
		Variant: VariantInstruction,
		Sampling: map[Variant]Sampling{
			VariantInstruction: {Temperature: 0.5, MaxOutputTokens: 1000},
		},
	})
	got, err := b.Build(testRequest())
	if err != nil {
		t.Fatal(err)
	}
	if got.Temperature != 0.5 || got.MaxOutputTokens != 1000 {
		t.Errorf("sampling = %v/%d", got.Temperature, got.MaxOutputTokens)
	}
}

func TestBuildRejectsInvalidRequests(t *testing.T) {
	b := NewBuilder(BuilderOptions{Prompts: testPrompts(t)})

	tests := []struct {
		name   string
		mutate func(*Request)
		want   error
	}{
		{name: "zeroTotal", mutate: func(r *Request) { r.TotalDuration = 0 }, want: ErrValidation},
		{name: "sumMismatch", mutate: func(r *Request) { r.TotalDuration = 41 }, want: ErrValidation},
		{name: "noCuts", mutate: func(r *Request) { r.Cuts = nil }, want: ErrNoCuts},
		{name: "badModel", mutate: func(r *Request) { r.Model = "gpt-4" }, want: ErrValidation},
		{name: "badLanguage", mutate: func(r *Request) { r.Language = "fr" }, want: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)
			if _, err := b.Build(req); !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant(""); err != nil || v != VariantSchema {
		t.Errorf("ParseVariant(\"\") = %q, %v", v, err)
	}
	if v, err := ParseVariant("instruction"); err != nil || v != VariantInstruction {
		t.Errorf("ParseVariant(instruction) = %q, %v", v, err)
	}
	if _, err := ParseVariant("xml"); err == nil {
		t.Error("ParseVariant(xml) expected error")
	}
}
