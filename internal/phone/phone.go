// Package phone normalizes and validates Indonesian phone numbers supplied
// during the capture dialogue, including the explicit "no number" answer.
package phone

import (
	"regexp"
	"strings"
)

// FormatHint is the instruction shown when validation fails. Callers
// re-prompt with this rather than aborting the session.
const FormatHint = "Format nomor HP: 08xxxxxxxxxx atau +628xxxxxxxxxx. Ketik *tidak* kalau tidak ada nomornya."

// FormatHintSpoken is the same instruction in a register safe for speech
// synthesis: no markdown, no placeholder strings to read aloud.
const FormatHintSpoken = "Nomornya belum valid. Pakai format nol delapan atau plus enam dua, atau bilang tidak kalau tidak ada nomornya."

// Result is the outcome of validating one phone input.
type Result struct {
	OK           bool
	ExplicitNone bool
	Normalized   string
	Reason       string
}

var nonDigits = regexp.MustCompile(`[^\d]`)

// noneAnswers are the ways a user declines to attach a number. A valid
// terminal outcome, not an error.
var noneAnswers = map[string]bool{
	"":      true,
	"tidak": true,
	"no":    true,
	"nggak": true,
	"gak":   true,
}

// Validate checks a raw phone input and normalizes it to the canonical
// +62 form for storage.
func Validate(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if noneAnswers[strings.ToLower(trimmed)] {
		return Result{OK: true, ExplicitNone: true}
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	digits := nonDigits.ReplaceAllString(trimmed, "")

	var subscriber string
	switch {
	case !hasPlus && strings.HasPrefix(digits, "0"):
		subscriber = digits[1:]
	case strings.HasPrefix(digits, "62"):
		subscriber = digits[2:]
	default:
		return Result{Reason: FormatHint}
	}

	if len(subscriber) < 9 || len(subscriber) > 13 {
		return Result{Reason: FormatHint}
	}

	return Result{OK: true, Normalized: "+62" + subscriber}
}
