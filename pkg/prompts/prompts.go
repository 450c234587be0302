package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System       VariantPrompts    `yaml:"system"`
	Body         VariantPrompts    `yaml:"body"`
	CutLine      map[string]string `yaml:"cut_line"`
	LanguageName map[string]string `yaml:"language_name"`
}

// VariantPrompts holds one template per request variant.
type VariantPrompts struct {
	Instruction string `yaml:"instruction"`
	Schema      string `yaml:"schema"`
}

type BodyParams struct {
	ProjectTitle  string
	Theme         string
	TotalDuration int
	LanguageName  string
	CutList       string
}

type CutLineParams struct {
	Number      int
	Duration    int
	Description string
}

// Load reads prompts.yaml from the working directory and falls back to the
// built-in prompts when the file does not exist.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parse(data)
}

func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderBody(structured bool, params BodyParams) (string, error) {
	if structured {
		return render(p.Body.Schema, params)
	}
	return render(p.Body.Instruction, params)
}

func (p *Prompts) SystemInstruction(structured bool) string {
	if structured {
		return strings.TrimSpace(p.System.Schema)
	}
	return strings.TrimSpace(p.System.Instruction)
}

// RenderCutLine renders one line of the cut list in the given language,
// falling back to English when the language has no template.
func (p *Prompts) RenderCutLine(lang string, params CutLineParams) (string, error) {
	tmpl, ok := p.CutLine[lang]
	if !ok {
		tmpl = p.CutLine["en"]
	}
	return render(tmpl, params)
}

func (p *Prompts) Language(lang string) string {
	if name, ok := p.LanguageName[lang]; ok {
		return name
	}
	return lang
}

var funcs = template.FuncMap{
	"keywords": func(s string) string {
		return strings.ReplaceAll(s, ",", "', '")
	},
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Funcs(funcs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
