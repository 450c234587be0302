package scenario

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Meta struct {
	Title         string `json:"title"`
	Theme         string `json:"theme"`
	TotalDuration int    `json:"total_duration"`
	VisualStyle   string `json:"visual_style"`
	AudioProfile  string `json:"audio_profile"`
}

type Scene struct {
	ShotType       string `json:"shot_type"`
	VisualPrompt   string `json:"visual_prompt"`
	CameraMovement string `json:"camera_movement"`
}

type Audio struct {
	NarrationText string `json:"narration_text"`
	NarrationTone string `json:"narration_tone"`
	BGMCue        string `json:"bgm_cue"`
}

type CutPlan struct {
	Number   int   `json:"cut_number"`
	Duration int   `json:"duration"`
	Scene    Scene `json:"scene_details"`
	Audio    Audio `json:"audio_details"`

	raw any
}

// Scenario is the single internal shape for both the nested
// (scene_details/audio_details) and the flat response layouts.
type Scenario struct {
	ProjectID string    `json:"project_id"`
	Meta      Meta      `json:"meta_data"`
	Cuts      []CutPlan `json:"cuts"`
}

// FromDocument adapts a parsed response document. Missing or mistyped fields
// are left at their zero value; it never fails.
func FromDocument(doc map[string]any) Scenario {
	s := Scenario{
		ProjectID: stringField(doc, "project_id"),
	}

	if meta, ok := doc["meta_data"].(map[string]any); ok {
		s.Meta = Meta{
			Title:         stringField(meta, "title"),
			Theme:         stringField(meta, "theme"),
			TotalDuration: intField(meta, "total_duration"),
			VisualStyle:   stringField(meta, "visual_style"),
			AudioProfile:  stringField(meta, "audio_profile"),
		}
	}

	items, _ := doc["cuts"].([]any)
	s.Cuts = make([]CutPlan, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			fields = map[string]any{}
		}
		s.Cuts = append(s.Cuts, adaptCut(i, fields, item))
	}

	return s
}

func adaptCut(index int, fields map[string]any, raw any) CutPlan {
	cut := CutPlan{
		Number:   intField(fields, "cut_number"),
		Duration: intField(fields, "duration"),
		raw:      raw,
	}
	if cut.Number <= 0 {
		cut.Number = index + 1
	}

	scene := fields
	if nested, ok := fields["scene_details"].(map[string]any); ok {
		scene = nested
	}
	cut.Scene = Scene{
		ShotType:       stringField(scene, "shot_type"),
		VisualPrompt:   stringField(scene, "visual_prompt"),
		CameraMovement: stringField(scene, "camera_movement"),
	}

	audio := fields
	if nested, ok := fields["audio_details"].(map[string]any); ok {
		audio = nested
	}
	cut.Audio = Audio{
		NarrationText: stringField(audio, "narration_text"),
		NarrationTone: stringField(audio, "narration_tone"),
		BGMCue:        stringField(audio, "bgm_cue"),
	}

	return cut
}

func (s Scenario) Cut(number int) (CutPlan, bool) {
	for _, c := range s.Cuts {
		if c.Number == number {
			return c, true
		}
	}
	return CutPlan{}, false
}

// RawJSON renders the cut exactly as the service returned it.
func (c CutPlan) RawJSON() (string, error) {
	if c.raw == nil {
		return canonical(c)
	}
	return canonical(c.raw)
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// intField accepts numbers and numeric strings such as "30" or "30s".
func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(v)
	case string:
		digits := strings.TrimRightFunc(strings.TrimSpace(v), func(r rune) bool {
			return r < '0' || r > '9'
		})
		if n, err := strconv.Atoi(digits); err == nil {
			return n
		}
	}
	return 0
}
