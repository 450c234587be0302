package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ecclesia/internal/llm"
)

var _ llm.Generator = (*Client)(nil)

const (
	BackendAPI    = "api"
	BackendVertex = "vertex"
)

type Options struct {
	APIKey   string
	Backend  string
	Project  string
	Location string
	// BaseURL overrides the service endpoint.
	BaseURL string
}

type Client struct {
	client *genai.Client
}

var sceneSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"shot_type":       {Type: genai.TypeString, Description: "One of ECU, CU, MS, WS"},
		"visual_prompt":   {Type: genai.TypeString, Description: "Detailed cinematic prompt in English: camera work, lighting, characters, atmosphere"},
		"camera_movement": {Type: genai.TypeString, Description: "Scene appropriate movement, e.g. Slow Zoom-out"},
	},
	Required:         []string{"shot_type", "visual_prompt", "camera_movement"},
	PropertyOrdering: []string{"shot_type", "visual_prompt", "camera_movement"},
}

var audioSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"narration_text": {Type: genai.TypeString, Description: "Narration spoken during the cut"},
		"narration_tone": {Type: genai.TypeString, Description: "Solemn, Warning, Calm, Confident, etc."},
		"bgm_cue":        {Type: genai.TypeString, Description: "Monotone Drone, Hopeful Melody, etc."},
	},
	Required:         []string{"narration_text", "narration_tone", "bgm_cue"},
	PropertyOrdering: []string{"narration_text", "narration_tone", "bgm_cue"},
}

var cutSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cut_number":    {Type: genai.TypeInteger, Description: "1-based position of the cut"},
		"duration":      {Type: genai.TypeInteger, Description: "Cut duration in seconds, copied from the request"},
		"scene_details": sceneSchema,
		"audio_details": audioSchema,
	},
	Required:         []string{"cut_number", "duration", "scene_details", "audio_details"},
	PropertyOrdering: []string{"cut_number", "duration", "scene_details", "audio_details"},
}

var metaSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":          {Type: genai.TypeString},
		"theme":          {Type: genai.TypeString},
		"total_duration": {Type: genai.TypeInteger},
		"visual_style":   {Type: genai.TypeString},
		"audio_profile":  {Type: genai.TypeString},
	},
	Required:         []string{"title", "theme", "total_duration", "visual_style", "audio_profile"},
	PropertyOrdering: []string{"title", "theme", "total_duration", "visual_style", "audio_profile"},
}

// ScenarioSchema constrains structured replies to the nested scenario shape.
var ScenarioSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"project_id": {Type: genai.TypeString, Description: "Generated project identifier"},
		"meta_data":  metaSchema,
		"cuts":       {Type: genai.TypeArray, Items: cutSchema},
	},
	Required:         []string{"project_id", "meta_data", "cuts"},
	PropertyOrdering: []string{"project_id", "meta_data", "cuts"},
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	}

	switch opts.Backend {
	case BackendVertex:
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = opts.Project
		cfg.Location = opts.Location
	case BackendAPI, "":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("create gemini client: missing API key")
		}
		cfg.Backend = genai.BackendGeminiAPI
		cfg.APIKey = opts.APIKey
	default:
		return nil, fmt.Errorf("create gemini client: unknown backend %q", opts.Backend)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		},
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.Structured {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = ScenarioSchema
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return responseText(resp), nil
}

// responseText joins the text parts of the first candidate. An empty string
// means the service replied without text.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
