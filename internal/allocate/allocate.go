// Package allocate splits a total video duration into cuts.
package allocate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ecclesia/internal/scenario"
)

// MaxCuts bounds the number of cuts a plan may have.
const MaxCuts = 1000

// ErrTooManyCuts marks validation errors for plans longer than MaxCuts.
var ErrTooManyCuts = errors.New("too many cuts")

func tooManyCuts(n int) error {
	return &scenario.Error{
		Kind:    scenario.KindValidation,
		Message: fmt.Sprintf("%d cuts requested, at most %d allowed", n, MaxCuts),
		Err:     ErrTooManyCuts,
	}
}

// CheckCount reports a validation error when n cuts exceed MaxCuts.
func CheckCount(n int) error {
	if n > MaxCuts {
		return tooManyCuts(n)
	}
	return nil
}

func NewCut(description string) scenario.Cut {
	return scenario.Cut{
		ID:          uuid.NewString(),
		Description: description,
	}
}

// ByLength cuts total into perCut-second pieces, plus one remainder cut when
// total is not a multiple of perCut. Every cut gets description.
func ByLength(total, perCut int, description string) ([]scenario.Cut, error) {
	if total <= 0 || perCut <= 0 {
		return nil, scenario.ValidationError("total duration and duration per cut must be greater than 0 (got %d and %d)", total, perCut)
	}

	count := total / perCut
	remainder := total % perCut
	if count > MaxCuts || (count == MaxCuts && remainder > 0) {
		return nil, tooManyCuts(count + min(remainder, 1))
	}

	cuts := make([]scenario.Cut, 0, count+1)
	for range count {
		cut := NewCut(description)
		cut.Duration = perCut
		cuts = append(cuts, cut)
	}
	if remainder > 0 {
		cut := NewCut(description)
		cut.Duration = remainder
		cuts = append(cuts, cut)
	}

	if len(cuts) == 0 {
		return nil, scenario.NoCutsError("could not generate any cuts")
	}
	return cuts, nil
}

// Rebalance spreads total evenly over the existing cuts, giving the extra
// seconds to the lowest indices. Ids and descriptions are kept. When every
// duration is already correct it returns the input slice and false.
func Rebalance(cuts []scenario.Cut, total int) ([]scenario.Cut, bool) {
	n := len(cuts)
	if n == 0 {
		return cuts, false
	}
	if total < 0 {
		total = 0
	}

	base, remainder := total/n, total%n
	want := func(i int) int {
		if i < remainder {
			return base + 1
		}
		return base
	}

	changed := false
	for i := range cuts {
		if cuts[i].Duration != want(i) {
			changed = true
			break
		}
	}
	if !changed {
		return cuts, false
	}

	out := make([]scenario.Cut, n)
	for i, c := range cuts {
		c.Duration = want(i)
		out[i] = c
	}
	return out, true
}

// Even creates n fresh cuts sharing total the way Rebalance does.
func Even(total, n int, description string) ([]scenario.Cut, error) {
	if n < 1 {
		return nil, scenario.NoCutsError("cut count must be at least 1")
	}
	if err := CheckCount(n); err != nil {
		return nil, err
	}
	cuts := make([]scenario.Cut, n)
	for i := range cuts {
		cuts[i] = NewCut(description)
	}
	cuts, _ = Rebalance(cuts, total)
	return cuts, nil
}

// ParseSeconds reads a form value, treating anything unparsable or negative
// as 0.
func ParseSeconds(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
