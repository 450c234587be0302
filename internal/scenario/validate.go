package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)\\s*```")

// Result is an accepted response: the canonical text, the parsed document
// and its typed form.
type Result struct {
	JSON     string
	Document map[string]any
	Scenario Scenario
}

// ExtractJSON strips an optional fenced code block around the payload.
func ExtractJSON(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// Parse validates raw model output and returns the canonical document.
func Parse(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, newError(KindEmptyResponse, "the AI returned an empty response", nil)
	}

	doc, err := decode(ExtractJSON(raw))
	if err != nil {
		return nil, newError(KindMalformedResponse, "the AI returned an invalid JSON format", err)
	}

	object, ok := doc.(map[string]any)
	if !ok {
		return nil, newError(KindStructuralMismatch, "the AI response is not a JSON object", nil)
	}
	if _, ok := object["cuts"].([]any); !ok {
		return nil, newError(KindStructuralMismatch, "the AI response has no 'cuts' array", nil)
	}

	text, err := canonical(object)
	if err != nil {
		return nil, newError(KindMalformedResponse, "re-encode response", err)
	}

	return &Result{
		JSON:     text,
		Document: object,
		Scenario: FromDocument(object),
	}, nil
}

// MetaJSON renders the meta_data section for copying.
func (r *Result) MetaJSON() (string, error) {
	meta, ok := r.Document["meta_data"]
	if !ok {
		return "", fmt.Errorf("response has no meta_data")
	}
	return canonical(meta)
}

func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return doc, nil
}

func canonical(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
