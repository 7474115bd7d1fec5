package voice

import "fmt"

// Register selects the output register of a generated reply.
type Register string

const (
	RegisterText  Register = "TEXT"
	RegisterVoice Register = "VOICE"
)

// Spoken-duration envelope for voice replies, roughly 30-60 seconds of
// audio at a natural Indonesian speaking pace.
const (
	voiceMinWords = 80
	voiceMaxWords = 160
)

// PromptDirectives is the structured steering payload consumed by a
// downstream reply generator. It never contains the reply text itself,
// only the contract the generator must honor.
type PromptDirectives struct {
	AddressingInstruction string
	DeliveryRegister      Register
	StyleConstraints      []string
}

// ComposeOptions are the inputs that select the directive structure.
type ComposeOptions struct {
	DisplayName      string
	IsVoiceRequested bool
}

// Compose builds the prompt directives for one reply. Deterministic: the
// same options always produce the same structure.
func Compose(opts ComposeOptions) PromptDirectives {
	directives := PromptDirectives{}

	if opts.DisplayName != "" {
		directives.AddressingInstruction = fmt.Sprintf("Sapa pengguna dengan namanya, %q.", opts.DisplayName)
	} else {
		directives.AddressingInstruction = "Sapa pengguna secara umum, tanpa menyebut nama."
	}

	if opts.IsVoiceRequested {
		directives.DeliveryRegister = RegisterVoice
		directives.StyleConstraints = []string{
			"Tulis seperti orang berbicara, dengan irama lisan yang natural.",
			"Hindari tanda baca padat, markdown, dan daftar; gunakan jeda koma.",
			fmt.Sprintf("Panjang jawaban %d-%d kata, setara 30-60 detik audio.", voiceMinWords, voiceMaxWords),
		}
	} else {
		directives.DeliveryRegister = RegisterText
		directives.StyleConstraints = []string{
			"Boleh memakai emoji secukupnya untuk kesan empati.",
			"Tidak ada batasan durasi lisan.",
		}
	}

	return directives
}
