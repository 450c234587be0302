package llm

import "context"

// Request is one call to a text generation service.
type Request struct {
	Model           string
	System          string
	Prompt          string
	Temperature     float32
	MaxOutputTokens int32
	// Structured asks the service to constrain its reply to the scenario
	// response schema and to answer with application/json.
	Structured bool
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
}
