package scenario

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type Model string

const (
	ModelFlash Model = "gemini-2.5-flash"
	ModelPro   Model = "gemini-2.5-pro"

	DefaultModel = ModelFlash
)

func Models() []Model {
	return []Model{ModelFlash, ModelPro}
}

func ParseModel(s string) (Model, error) {
	switch m := Model(strings.TrimSpace(s)); m {
	case "":
		return DefaultModel, nil
	case ModelFlash, ModelPro:
		return m, nil
	default:
		return "", UnsupportedError("model", s)
	}
}

type Language string

const (
	English Language = "en"
	Korean  Language = "ko"

	DefaultLanguage = Korean
)

var (
	supportedTags = []language.Tag{language.English, language.Korean}
	tagMatcher    = language.NewMatcher(supportedTags)
)

func Languages() []Language {
	return []Language{English, Korean}
}

// ParseLanguage accepts BCP 47 tags such as "ko-KR" or "en_US" and maps them
// onto the two supported output languages.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLanguage, nil
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", UnsupportedError("language", s)
	}

	_, idx, confidence := tagMatcher.Match(tag)
	if confidence == language.No {
		return "", UnsupportedError("language", s)
	}

	if supportedTags[idx] == language.Korean {
		return Korean, nil
	}
	return English, nil
}

// Request is everything the generation service needs for one submission.
type Request struct {
	ProjectTitle  string
	Theme         string
	TotalDuration int
	Cuts          []Cut
	Model         Model
	Language      Language
}

func (r Request) Validate() error {
	if r.TotalDuration <= 0 {
		return ValidationError("total duration must be greater than 0, got %d", r.TotalDuration)
	}
	if len(r.Cuts) == 0 {
		return NoCutsError("request has no cuts")
	}
	if sum := TotalDuration(r.Cuts); sum != r.TotalDuration {
		return ValidationError("cut durations sum to %d, want %d", sum, r.TotalDuration)
	}
	if _, err := ParseModel(string(r.Model)); err != nil {
		return err
	}
	if _, err := ParseLanguage(string(r.Language)); err != nil {
		return err
	}
	return nil
}

func (r Request) String() string {
	return fmt.Sprintf("%q (%ds, %d cuts, %s, %s)", r.ProjectTitle, r.TotalDuration, len(r.Cuts), r.Model, r.Language)
}
