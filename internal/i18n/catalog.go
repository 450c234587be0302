package i18n

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultMessages []byte

// Fallback is consulted when the active locale lacks a key.
const Fallback = "en"

// Catalog maps locale -> key -> template. Templates use {name} placeholders.
type Catalog struct {
	messages map[string]map[string]string
	matcher  language.Matcher
	locales  []string
}

func Default() (*Catalog, error) {
	return Parse(defaultMessages)
}

func Parse(data []byte) (*Catalog, error) {
	var messages map[string]map[string]string
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	if _, ok := messages[Fallback]; !ok {
		return nil, fmt.Errorf("messages have no %q locale", Fallback)
	}

	locales := make([]string, 0, len(messages))
	for locale := range messages {
		if locale != Fallback {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales)
	locales = append([]string{Fallback}, locales...)

	tags := make([]language.Tag, len(locales))
	for i, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tags[i] = tag
	}

	return &Catalog{
		messages: messages,
		matcher:  language.NewMatcher(tags),
		locales:  locales,
	}, nil
}

// Locales lists the supported locales, fallback first.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

// Locale maps a tag such as "ko-KR" to a supported locale, or the fallback.
func (c *Catalog) Locale(tag string) string {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return Fallback
	}
	_, idx, confidence := c.matcher.Match(t)
	if confidence == language.No {
		return Fallback
	}
	return c.locales[idx]
}

// T renders key in lang. kv holds placeholder name/value pairs:
//
//	c.T("ko", "cutScenarioTitle", "cut_number", 2)
//
// A key missing everywhere renders as the key itself.
func (c *Catalog) T(lang, key string, kv ...any) string {
	msg, ok := c.messages[c.Locale(lang)][key]
	if !ok {
		msg, ok = c.messages[Fallback][key]
	}
	if !ok {
		msg = key
	}

	for i := 0; i+1 < len(kv); i += 2 {
		name := fmt.Sprint(kv[i])
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(kv[i+1]))
	}
	return msg
}

// Messages returns every key for lang with fallback entries filled in.
func (c *Catalog) Messages(lang string) map[string]string {
	out := make(map[string]string, len(c.messages[Fallback]))
	for k, v := range c.messages[Fallback] {
		out[k] = v
	}
	for k, v := range c.messages[c.Locale(lang)] {
		out[k] = v
	}
	return out
}
