package model

import "time"

// Direction indicates who owes whom.
type Direction string

const (
	// DirectionDebt means the user owes the counterparty (hutang/utang).
	DirectionDebt Direction = "DEBT"
	// DirectionReceivable means the counterparty owes the user (piutang).
	DirectionReceivable Direction = "RECEIVABLE"
)

// PhoneNone marks a transaction where the user explicitly declined to
// provide a counterparty phone number.
const PhoneNone = "none"

// Transaction is a persisted debt/receivable record. Immutable once saved.
type Transaction struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Direction         Direction `json:"direction"`
	CounterpartyName  string    `json:"counterparty_name"`
	ItemDescription   string    `json:"item_description"`
	Amount            int64     `json:"amount"`
	CounterpartyPhone string    `json:"counterparty_phone"`
	CreatedAt         time.Time `json:"created_at"`
}

// Complete reports whether all required fields are present and the amount
// is positive. Partially filled data must never reach the store.
func (t *Transaction) Complete() bool {
	if t.Direction != DirectionDebt && t.Direction != DirectionReceivable {
		return false
	}
	return t.OwnerID != "" && t.CounterpartyName != "" && t.Amount > 0
}
