package server

import (
	"golang.org/x/text/language"
)

// parseAcceptLanguage returns the header's tags, highest weight first.
func parseAcceptLanguage(header string) ([]string, error) {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = tag.String()
	}
	return out, nil
}
