package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-catat-hutang/internal/engine"
	"whatsapp-catat-hutang/internal/extract"
	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/pkg/logger"
)

type fakeStore struct {
	mu       sync.Mutex
	saved    []model.Transaction
	failNext bool
	known    *model.Transaction
}

func (f *fakeStore) Save(_ context.Context, trx *model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("disk full")
	}
	f.saved = append(f.saved, *trx)
	return nil
}

func (f *fakeStore) LookupCounterparty(_ context.Context, _, _ string) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.known, nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestEngine(store engine.Store, opts engine.Options) *engine.Engine {
	extractor := extract.NewExtractor(nil, extract.NewRuleExtractor(), logger.New("ERROR"))
	return engine.NewEngine(extractor, store, opts, logger.New("ERROR"))
}

func message(chatID, text string) *model.IncomingMessage {
	return &model.IncomingMessage{
		ChatID:    chatID,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func TestEngine_EndToEndWithPhone(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	reply := eng.HandleMessage(ctx, message("628111@s.whatsapp.net", "Piutang Warung Madura Voucher Wifi 2rebuan 200K"))
	assert.Equal(t, model.KindCapture, reply.Kind)
	assert.Contains(t, reply.Text, "Warung Madura")
	assert.Contains(t, reply.Text, "Rp200.000")
	assert.Zero(t, store.savedCount(), "nothing persisted before the phone step")

	reply = eng.HandleMessage(ctx, message("628111@s.whatsapp.net", "081234567890"))
	assert.Contains(t, reply.Text, "Tersimpan")

	require.Equal(t, 1, store.savedCount())
	saved := store.saved[0]
	assert.Equal(t, model.DirectionReceivable, saved.Direction)
	assert.Equal(t, "Warung Madura", saved.CounterpartyName)
	assert.Equal(t, "Voucher Wifi 2rebuan", saved.ItemDescription)
	assert.Equal(t, int64(200_000), saved.Amount)
	assert.Equal(t, "+6281234567890", saved.CounterpartyPhone)
	assert.Equal(t, "628111@s.whatsapp.net", saved.OwnerID)

	// Cycle is closed: the next message starts a fresh capture.
	reply = eng.HandleMessage(ctx, message("628111@s.whatsapp.net", "Hutang Budi 50rb"))
	assert.Contains(t, reply.Text, "Budi")
}

func TestEngine_EndToEndExplicitNone(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Piutang Warung Madura Voucher Wifi 2rebuan 200K"))
	reply := eng.HandleMessage(ctx, message("chat-1", "tidak"))

	assert.Contains(t, reply.Text, "Tersimpan")
	require.Equal(t, 1, store.savedCount())
	assert.Equal(t, model.PhoneNone, store.saved[0].CounterpartyPhone)
}

func TestEngine_InvalidPhoneIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb"))

	var replies []string
	for i := 0; i < 3; i++ {
		reply := eng.HandleMessage(ctx, message("chat-1", "bukan nomor"))
		replies = append(replies, reply.Text)
	}

	// Same instructions every time, never a save, never an advance.
	assert.Equal(t, replies[0], replies[1])
	assert.Equal(t, replies[1], replies[2])
	assert.Zero(t, store.savedCount())

	// The pending transaction survived intact.
	reply := eng.HandleMessage(ctx, message("chat-1", "081234567890"))
	assert.Contains(t, reply.Text, "Tersimpan")
	require.Equal(t, 1, store.savedCount())
	assert.Equal(t, "Budi", store.saved[0].CounterpartyName)
	assert.Equal(t, int64(50_000), store.saved[0].Amount)
}

func TestEngine_Cancel(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb"))
	reply := eng.HandleMessage(ctx, message("chat-1", "batal"))

	assert.Contains(t, reply.Text, "dibatalkan")
	assert.Zero(t, store.savedCount())
	assert.Zero(t, eng.ActiveSessions())
}

func TestEngine_PersistenceFailureKeepsPending(t *testing.T) {
	store := &fakeStore{failNext: true}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb"))

	reply := eng.HandleMessage(ctx, message("chat-1", "081234567890"))
	assert.Contains(t, reply.Text, "Gagal")
	assert.Zero(t, store.savedCount())
	assert.Equal(t, 1, eng.ActiveSessions(), "state must stay AWAITING_PHONE")

	// Retrying with the next valid input persists exactly once.
	reply = eng.HandleMessage(ctx, message("chat-1", "081234567890"))
	assert.Contains(t, reply.Text, "Tersimpan")
	assert.Equal(t, 1, store.savedCount())
}

func TestEngine_TargetedReprompts(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	noDirection := eng.HandleMessage(ctx, message("chat-1", "halo apa kabar"))
	assert.Equal(t, model.KindChat, noDirection.Kind)

	noAmount := eng.HandleMessage(ctx, message("chat-1", "Hutang Budi banyak"))
	assert.Equal(t, model.KindCapture, noAmount.Kind)
	assert.Contains(t, noAmount.Text, "Nominal")

	noCounterparty := eng.HandleMessage(ctx, message("chat-1", "piutang 200k"))
	assert.Equal(t, model.KindCapture, noCounterparty.Kind)
	assert.Contains(t, noCounterparty.Text, "Nama")

	assert.Zero(t, eng.ActiveSessions(), "failed extraction never opens a capture")
}

func TestEngine_VoiceDecisionSetsDeliveryMode(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, engine.Options{VoiceEnabled: true})
	ctx := context.Background()

	voiceReply := eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb, balas dengan suara ya"))
	assert.Equal(t, model.DeliverVoice, voiceReply.DeliverAs)

	textReply := eng.HandleMessage(ctx, message("chat-2", "Hutang Budi 50rb"))
	assert.Equal(t, model.DeliverText, textReply.DeliverAs)
}

func TestEngine_VoiceToggleOff(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, engine.Options{VoiceEnabled: false})

	reply := eng.HandleMessage(context.Background(), message("chat-1", "pake suara dong, hutang Budi 50rb"))
	assert.Equal(t, model.DeliverText, reply.DeliverAs)
}

func TestEngine_ExpiryDiscardsPending(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{SessionExpiry: 10 * time.Millisecond})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb"))
	time.Sleep(30 * time.Millisecond)

	// The stale phone answer lands on an expired session: it is handled
	// as a fresh idle message, so nothing may be persisted.
	reply := eng.HandleMessage(ctx, message("chat-1", "081234567890"))
	assert.NotContains(t, reply.Text, "Tersimpan")
	assert.Zero(t, store.savedCount())
}

func TestEngine_SweepExpired(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, engine.Options{SessionExpiry: 10 * time.Millisecond})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb"))
	eng.HandleMessage(ctx, message("chat-2", "Piutang Sari 20rb"))
	assert.Equal(t, 2, eng.ActiveSessions())

	time.Sleep(30 * time.Millisecond)
	removed := eng.SweepExpired()
	assert.Equal(t, 2, removed)
	assert.Zero(t, eng.ActiveSessions())
}

func TestEngine_DistinctChatsAreIndependent(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{})
	ctx := context.Background()

	eng.HandleMessage(ctx, message("chat-a", "Hutang Budi 50rb"))
	eng.HandleMessage(ctx, message("chat-b", "Piutang Sari 20rb"))

	eng.HandleMessage(ctx, message("chat-a", "tidak"))
	eng.HandleMessage(ctx, message("chat-b", "081234567890"))

	require.Equal(t, 2, store.savedCount())

	byCounterparty := map[string]model.Transaction{}
	for _, trx := range store.saved {
		byCounterparty[trx.CounterpartyName] = trx
	}
	assert.Equal(t, model.PhoneNone, byCounterparty["Budi"].CounterpartyPhone)
	assert.Equal(t, "+6281234567890", byCounterparty["Sari"].CounterpartyPhone)
	assert.Equal(t, "chat-a", byCounterparty["Budi"].OwnerID)
	assert.Equal(t, "chat-b", byCounterparty["Sari"].OwnerID)
}

// assertSpokenRegister checks that a voice-bound reply carries no markdown,
// emoji, or other symbols a speech synthesizer would read aloud.
func assertSpokenRegister(t *testing.T, text string) {
	t.Helper()
	assert.NotContains(t, text, "*")
	assert.NotContains(t, text, "_")
	for _, r := range text {
		assert.Less(t, int(r), 0x2000, "symbol or emoji in spoken reply %q", text)
	}
}

func TestEngine_VoiceRepliesUseSpokenRegister(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(store, engine.Options{VoiceEnabled: true})
	ctx := context.Background()

	confirm := eng.HandleMessage(ctx, message("chat-1", "Hutang Budi 50rb, balas dengan suara ya"))
	assert.Equal(t, model.DeliverVoice, confirm.DeliverAs)
	assert.Contains(t, confirm.Text, "Budi")
	assert.Contains(t, confirm.Text, "50 ribu rupiah")
	assertSpokenRegister(t, confirm.Text)

	invalid := eng.HandleMessage(ctx, message("chat-1", "itu bukan nomor, pake suara ya"))
	assertSpokenRegister(t, invalid.Text)

	saved := eng.HandleMessage(ctx, message("chat-1", "081234567890 balas dengan suara ya"))
	assert.Contains(t, saved.Text, "Tersimpan")
	assertSpokenRegister(t, saved.Text)
	require.Equal(t, 1, store.savedCount())

	// The written register keeps its markdown texture.
	written := eng.HandleMessage(ctx, message("chat-2", "Hutang Budi 50rb"))
	assert.Contains(t, written.Text, "*")
}

func TestEngine_ChatReplyIntroducesDisplayName(t *testing.T) {
	eng := newTestEngine(&fakeStore{}, engine.Options{DisplayName: "Teteh"})

	reply := eng.HandleMessage(context.Background(), message("chat-1", "halo apa kabar"))
	assert.Equal(t, model.KindChat, reply.Kind)
	assert.Contains(t, reply.Text, "Teteh")
}

func TestEngine_KnownCounterpartyHint(t *testing.T) {
	store := &fakeStore{known: &model.Transaction{
		CounterpartyName:  "Budi",
		CounterpartyPhone: "+6281234567890",
	}}
	eng := newTestEngine(store, engine.Options{})

	reply := eng.HandleMessage(context.Background(), message("chat-1", "Hutang Budi 50rb"))
	assert.Contains(t, reply.Text, "+6281234567890")
}
