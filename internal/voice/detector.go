// Package voice decides, per inbound message, whether the reply must be
// spoken, and composes the steering directives that condition how a reply
// generator phrases its output.
package voice

import "strings"

// Decision is the per-message voice intent result. Never persisted.
type Decision struct {
	IsVoiceRequested bool
	MatchedKeyword   string
}

// triggerPhrases is the ordered list of locale-specific phrases that
// request a spoken reply. Order matters: the first match wins and is
// reported as MatchedKeyword for diagnostics.
var triggerPhrases = []string{
	"balas dengan suara",
	"pake suara",
	"dengan voice",
	"jawab pake suara",
	"minta suara",
	"ceritakan dengan suara",
}

// Detect scans text for a voice-request phrase. Pure function,
// case-insensitive substring match; unmatched input yields a zero Decision.
func Detect(text string) Decision {
	normalized := strings.ToLower(text)
	for _, phrase := range triggerPhrases {
		if strings.Contains(normalized, phrase) {
			return Decision{IsVoiceRequested: true, MatchedKeyword: phrase}
		}
	}
	return Decision{}
}
