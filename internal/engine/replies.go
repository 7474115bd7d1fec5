package engine

import (
	"fmt"
	"strconv"

	"whatsapp-catat-hutang/internal/model"
)

// Reply texts live here so wording changes never touch the state logic.
// Each reply carries a written form and a spoken form: synthesized audio
// must stay free of markdown, emoji and dense punctuation.
const (
	replyMissingCounterparty       = "Nama pihaknya belum ketangkap 🤔. Tulis namanya setelah kata hutang/piutang, contoh: _Hutang Budi 50rb_"
	replyMissingCounterpartySpoken = "Nama pihaknya belum ketangkap. Tulis namanya setelah kata hutang atau piutang, misalnya, hutang Budi lima puluh ribu."

	replyMissingAmount       = "Nominalnya belum ketangkap 🤔. Sebutkan jumlahnya, misalnya *50rb*, *1,5jt*, atau *200K*"
	replyMissingAmountSpoken = "Nominalnya belum ketangkap. Sebutkan jumlahnya, misalnya lima puluh ribu, atau satu setengah juta."

	replyCancelled       = "❌ Oke, dibatalkan. Catatan tadi tidak disimpan."
	replyCancelledSpoken = "Oke, dibatalkan. Catatan tadi tidak disimpan."

	replySaveFailed       = "⚠️ Gagal menyimpan catatan. Kirim lagi nomornya (atau *tidak*) untuk coba ulang ya."
	replySaveFailedSpoken = "Gagal menyimpan catatan. Kirim lagi nomornya, atau bilang tidak, untuk coba ulang ya."
)

// pick selects the register for one reply.
func pick(spoken bool, spokenForm, written string) string {
	if spoken {
		return spokenForm
	}
	return written
}

// chatReply introduces the bot by its display name for messages that carry
// no transaction intent.
func chatReply(name string, spoken bool) string {
	if spoken {
		return fmt.Sprintf("Aku %s, bot pencatat hutang dan piutang. Mulai pesanmu dengan kata hutang atau piutang, misalnya, piutang Warung Madura voucher wifi dua ratus ribu.", name)
	}
	return fmt.Sprintf("Aku %s, bot pencatat hutang/piutang 📒. Mulai pesanmu dengan kata *hutang* atau *piutang*, contoh: _Piutang Warung Madura Voucher Wifi 200K_", name)
}

// directionLabel renders the direction in the user's own vocabulary.
func directionLabel(d model.Direction) string {
	if d == model.DirectionReceivable {
		return "Piutang"
	}
	return "Hutang"
}

// formatRupiah renders whole rupiah with dot separators: 200000 → Rp200.000
func formatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}
	return "Rp" + string(out)
}

// spokenRupiah renders the amount the way it is said aloud, without
// separator dots: 200000 → "200 ribu rupiah"
func spokenRupiah(amount int64) string {
	switch {
	case amount%1_000_000 == 0:
		return fmt.Sprintf("%d juta rupiah", amount/1_000_000)
	case amount%1_000 == 0:
		return fmt.Sprintf("%d ribu rupiah", amount/1_000)
	default:
		return fmt.Sprintf("%d rupiah", amount)
	}
}

// confirmationReply acknowledges the captured fields and asks for the
// counterparty phone in the same turn. knownPhone carries a previously
// recorded number for this counterparty, if any.
func confirmationReply(trx *model.Transaction, knownPhone string, spoken bool) string {
	hasKnown := knownPhone != "" && knownPhone != model.PhoneNone

	if spoken {
		item := ""
		if trx.ItemDescription != "" {
			item = fmt.Sprintf(", untuk %s,", trx.ItemDescription)
		}
		hint := ""
		if hasKnown {
			hint = fmt.Sprintf(" Terakhir pakai %s.", knownPhone)
		}
		return fmt.Sprintf(
			"Siap dicatat. %s %s%s sebesar %s.%s Nomor HP %s berapa? Bilang tidak kalau tidak ada.",
			directionLabel(trx.Direction),
			trx.CounterpartyName,
			item,
			spokenRupiah(trx.Amount),
			hint,
			trx.CounterpartyName,
		)
	}

	item := ""
	if trx.ItemDescription != "" {
		item = fmt.Sprintf(" (%s)", trx.ItemDescription)
	}

	hint := ""
	if hasKnown {
		hint = fmt.Sprintf("\nTerakhir pakai %s.", knownPhone)
	}

	return fmt.Sprintf(
		"✅ Siap dicatat: %s *%s*%s sebesar *%s*.%s\n\nNomor HP %s berapa? Ketik *tidak* kalau tidak ada.",
		directionLabel(trx.Direction),
		trx.CounterpartyName,
		item,
		formatRupiah(trx.Amount),
		hint,
		trx.CounterpartyName,
	)
}

// savedReply confirms the persisted record.
func savedReply(trx *model.Transaction, spoken bool) string {
	if spoken {
		phonePart := "tanpa nomor HP"
		if trx.CounterpartyPhone != model.PhoneNone {
			phonePart = "dengan nomor " + trx.CounterpartyPhone
		}
		return fmt.Sprintf(
			"Tersimpan. %s %s sebesar %s, %s. Makasih ya.",
			directionLabel(trx.Direction),
			trx.CounterpartyName,
			spokenRupiah(trx.Amount),
			phonePart,
		)
	}

	phonePart := "tanpa nomor HP"
	if trx.CounterpartyPhone != model.PhoneNone {
		phonePart = "nomor " + trx.CounterpartyPhone
	}

	return fmt.Sprintf(
		"💾 Tersimpan! %s *%s* sebesar *%s*, %s. Makasih! 🙌",
		directionLabel(trx.Direction),
		trx.CounterpartyName,
		formatRupiah(trx.Amount),
		phonePart,
	)
}
