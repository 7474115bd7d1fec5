package extract

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"whatsapp-catat-hutang/internal/model"
)

// RuleExtractor is the deterministic fallback: an ordered rule table over
// the raw text. It needs no network and never times out.
type RuleExtractor struct{}

// NewRuleExtractor creates the deterministic rule-based extractor.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// directionKeywords maps locale keywords to a transaction direction.
var directionKeywords = map[string]model.Direction{
	"piutang": model.DirectionReceivable,
	"hutang":  model.DirectionDebt,
	"utang":   model.DirectionDebt,
}

// itemLeadWords mark the start of an item description, ending the
// counterparty name run. Locale-specific heuristic.
var itemLeadWords = map[string]bool{
	"voucher": true,
	"pulsa":   true,
	"token":   true,
	"paket":   true,
	"uang":    true,
	"barang":  true,
	"beli":    true,
	"bayar":   true,
	"buat":    true,
	"untuk":   true,
}

// amountPattern matches one monetary token: digits, optional decimal or
// thousands separators, optional unit suffix ("2rebuan", "50rb", "1,5jt").
var amountPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)(jt|juta|rb|ribuan|ribu|rebuan|rebu|k)?$`)

// thousandsShape recognizes separator-grouped literals like "200.000".
var thousandsShape = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

var unitMultipliers = map[string]int64{
	"k":      1_000,
	"rb":     1_000,
	"ribu":   1_000,
	"ribuan": 1_000,
	"rebu":   1_000,
	"rebuan": 1_000,
	"jt":     1_000_000,
	"juta":   1_000_000,
}

// Extract applies the ordered rules: direction keyword, counterparty run,
// amount token (last match wins), remainder as item description.
func (r *RuleExtractor) Extract(_ context.Context, text string) (*Fields, error) {
	tokens := strings.Fields(text)

	// Rule 1: direction keyword must be present.
	dirIdx := -1
	var direction model.Direction
	for i, tok := range tokens {
		if d, ok := directionKeywords[cleanToken(tok)]; ok {
			dirIdx = i
			direction = d
			break
		}
	}
	if dirIdx < 0 {
		return nil, &Error{Reason: ReasonMissingDirection}
	}

	// Rule 3 runs before the boundary scan because the amount token also
	// acts as a hard boundary. The last amount-like match wins: totals
	// are typically stated last.
	amountIdx := -1
	var amount int64
	for i := dirIdx + 1; i < len(tokens); i++ {
		value, ok := parseAmountToken(tokens, i)
		if ok {
			amountIdx = i
			amount = value
		}
	}
	if amountIdx < 0 || amount <= 0 {
		return nil, &Error{Reason: ReasonMissingAmount}
	}

	// Rule 2: counterparty is the token run after the direction keyword,
	// up to the first item-lead word, digit-bearing token, or the amount.
	boundary := amountIdx
	for i := dirIdx + 1; i < amountIdx; i++ {
		tok := cleanToken(tokens[i])
		if itemLeadWords[tok] || containsDigit(tok) {
			boundary = i
			break
		}
	}
	if boundary == dirIdx+1 {
		return nil, &Error{Reason: ReasonMissingCounterparty}
	}
	counterparty := strings.Join(tokens[dirIdx+1:boundary], " ")

	// Rule 4: whatever sits between the boundary and the amount token is
	// the item description. May be empty, never null.
	description := ""
	if boundary < amountIdx {
		description = strings.Join(tokens[boundary:amountIdx], " ")
	}

	return &Fields{
		Direction:        direction,
		CounterpartyName: counterparty,
		ItemDescription:  description,
		Amount:           amount,
	}, nil
}

// parseAmountToken parses tokens[i] as a monetary token. A bare number
// followed by a standalone unit word ("2 juta") is also accepted.
func parseAmountToken(tokens []string, i int) (int64, bool) {
	match := amountPattern.FindStringSubmatch(cleanToken(tokens[i]))
	if match == nil {
		return 0, false
	}

	numeric, unit := match[1], match[2]
	if unit == "" && i+1 < len(tokens) {
		if _, ok := unitMultipliers[cleanToken(tokens[i+1])]; ok {
			unit = cleanToken(tokens[i+1])
		}
	}

	multiplier := int64(1)
	if unit != "" {
		multiplier = unitMultipliers[unit]
	}

	// "200.000" without a unit is a separator-grouped literal, not a
	// decimal fraction.
	if thousandsShape.MatchString(numeric) && unit == "" {
		stripped := strings.NewReplacer(".", "", ",", "").Replace(numeric)
		value, err := strconv.ParseInt(stripped, 10, 64)
		if err != nil {
			return 0, false
		}
		return value, true
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(numeric, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(value * float64(multiplier))), true
}

// cleanToken lowercases and strips surrounding punctuation.
func cleanToken(tok string) string {
	return strings.Trim(strings.ToLower(tok), ".,!?;:()*_\"'")
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
