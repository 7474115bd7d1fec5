package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_AllTriggerPhrases(t *testing.T) {
	phrases := []string{
		"balas dengan suara",
		"pake suara",
		"dengan voice",
		"jawab pake suara",
		"minta suara",
		"ceritakan dengan suara",
	}

	for _, phrase := range phrases {
		decision := Detect("tolong " + phrase + " dong, catat hutang Budi 50rb")
		assert.True(t, decision.IsVoiceRequested, "phrase %q should trigger voice", phrase)
		assert.NotEmpty(t, decision.MatchedKeyword)
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	decision := Detect("Balas Dengan SUARA ya")
	assert.True(t, decision.IsVoiceRequested)
	assert.Equal(t, "balas dengan suara", decision.MatchedKeyword)
}

func TestDetect_FirstMatchWins(t *testing.T) {
	// "jawab pake suara" contains "pake suara"; the earlier list entry
	// is reported.
	decision := Detect("jawab pake suara ya")
	assert.True(t, decision.IsVoiceRequested)
	assert.Equal(t, "pake suara", decision.MatchedKeyword)
}

func TestDetect_NoTrigger(t *testing.T) {
	for _, text := range []string{
		"Piutang Warung Madura Voucher Wifi 200K",
		"halo apa kabar",
		"",
		"suara", // bare word is not a request phrase
	} {
		decision := Detect(text)
		assert.False(t, decision.IsVoiceRequested, "text %q should not trigger voice", text)
		assert.Empty(t, decision.MatchedKeyword)
	}
}
