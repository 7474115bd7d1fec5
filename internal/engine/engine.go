package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"whatsapp-catat-hutang/internal/extract"
	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/internal/phone"
	"whatsapp-catat-hutang/internal/voice"
	"whatsapp-catat-hutang/pkg/logger"
)

// Store is the persistence collaborator consumed by the engine.
type Store interface {
	Save(ctx context.Context, trx *model.Transaction) error
	LookupCounterparty(ctx context.Context, ownerID, name string) (*model.Transaction, error)
}

// cancelKeywords abort a capture while a phone number is awaited.
var cancelKeywords = map[string]bool{
	"batal":    true,
	"cancel":   true,
	"gak jadi": true,
	"ga jadi":  true,
}

// Options configure the engine.
type Options struct {
	DisplayName   string
	SessionExpiry time.Duration
	StoreTimeout  time.Duration
	VoiceEnabled  bool
}

// Engine is the session state machine. It serializes message handling per
// chat identity: the session entry's lock is held for the whole of one
// message's handling, while the registry lock only covers map access.
type Engine struct {
	registryMu sync.Mutex
	sessions   map[string]*Session

	extractor extract.Strategy
	store     Store
	opts      Options
	logger    *logger.Logger
}

// NewEngine creates the session engine.
func NewEngine(extractor extract.Strategy, store Store, opts Options, log *logger.Logger) *Engine {
	if opts.DisplayName == "" {
		opts.DisplayName = "CatatHutang"
	}
	if opts.SessionExpiry <= 0 {
		opts.SessionExpiry = 10 * time.Minute
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}

	return &Engine{
		sessions:  make(map[string]*Session),
		extractor: extractor,
		store:     store,
		opts:      opts,
		logger:    log,
	}
}

// HandleMessage runs one inbound message to a terminal outcome and returns
// the outbound intent. Voice intent is detected on every message,
// independent of capture state.
func (e *Engine) HandleMessage(ctx context.Context, msg *model.IncomingMessage) *model.Reply {
	decision := voice.Detect(msg.Text)
	if decision.IsVoiceRequested {
		e.logger.WithChatID(msg.ChatID).Debug("voice reply requested", "trigger", decision.MatchedKeyword)
	}
	spoken := decision.IsVoiceRequested && e.opts.VoiceEnabled

	sess := e.lockSession(msg.ChatID)
	defer sess.mu.Unlock()

	now := time.Now()
	if sess.State != StateIdle && sess.expired(now, e.opts.SessionExpiry) {
		e.logger.WithChatID(msg.ChatID).WithState(sess.State.String()).Info("session expired, discarding pending transaction")
		sess.reset()
	}
	sess.LastActivityAt = now

	var text string
	kind := model.KindCapture

	switch sess.State {
	case StateAwaitingPhone:
		text = e.handleAwaitingPhone(ctx, sess, msg, spoken)
	default:
		text, kind = e.handleIdle(ctx, sess, msg, spoken)
	}

	deliverAs := model.DeliverText
	if spoken {
		deliverAs = model.DeliverVoice
	}

	return &model.Reply{
		ChatID:    msg.ChatID,
		Text:      text,
		DeliverAs: deliverAs,
		Kind:      kind,
	}
}

// handleIdle attempts extraction and, on success, opens the phone step.
func (e *Engine) handleIdle(ctx context.Context, sess *Session, msg *model.IncomingMessage, spoken bool) (string, model.ReplyKind) {
	log := e.logger.WithChatID(msg.ChatID)

	fields, err := e.extractor.Extract(ctx, msg.Text)
	if err != nil {
		if tagged, ok := extract.AsError(err); ok {
			switch tagged.Reason {
			case extract.ReasonMissingCounterparty:
				return pick(spoken, replyMissingCounterpartySpoken, replyMissingCounterparty), model.KindCapture
			case extract.ReasonMissingAmount:
				return pick(spoken, replyMissingAmountSpoken, replyMissingAmount), model.KindCapture
			default:
				// No direction keyword at all: probably not a
				// transaction. A configured responder may take over.
				return chatReply(e.opts.DisplayName, spoken), model.KindChat
			}
		}
		log.WithError(err).Error("extraction failed without a tagged reason")
		return chatReply(e.opts.DisplayName, spoken), model.KindChat
	}

	if fields.Amount <= 0 {
		return pick(spoken, replyMissingAmountSpoken, replyMissingAmount), model.KindCapture
	}

	sess.Pending = &model.Transaction{
		OwnerID:          msg.ChatID,
		Direction:        fields.Direction,
		CounterpartyName: fields.CounterpartyName,
		ItemDescription:  fields.ItemDescription,
		Amount:           fields.Amount,
	}
	sess.State = StateAwaitingPhone

	log.WithState(sess.State.String()).Info("transaction captured",
		"direction", fields.Direction,
		"counterparty", fields.CounterpartyName,
		"amount", fields.Amount,
	)

	return confirmationReply(sess.Pending, e.knownPhone(ctx, sess.Pending), spoken), model.KindCapture
}

// handleAwaitingPhone validates the phone answer and persists the pending
// transaction. Invalid input re-prompts without touching the pending
// record; persistence failure keeps both state and record for a retry.
func (e *Engine) handleAwaitingPhone(ctx context.Context, sess *Session, msg *model.IncomingMessage, spoken bool) string {
	log := e.logger.WithChatID(msg.ChatID).WithState(sess.State.String())

	if cancelKeywords[strings.ToLower(strings.TrimSpace(msg.Text))] {
		log.Info("capture cancelled by user")
		sess.reset()
		return pick(spoken, replyCancelledSpoken, replyCancelled)
	}

	result := phone.Validate(msg.Text)
	if !result.OK {
		return pick(spoken, phone.FormatHintSpoken, result.Reason)
	}

	if result.ExplicitNone {
		sess.Pending.CounterpartyPhone = model.PhoneNone
	} else {
		sess.Pending.CounterpartyPhone = result.Normalized
	}

	// Amount invariant re-checked at the persistence boundary.
	if sess.Pending.Amount <= 0 {
		log.Error("pending transaction reached phone step with non-positive amount")
		sess.reset()
		return pick(spoken, replyMissingAmountSpoken, replyMissingAmount)
	}

	saveCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	if err := e.store.Save(saveCtx, sess.Pending); err != nil {
		log.WithError(err).Error("failed to persist transaction")
		return pick(spoken, replySaveFailedSpoken, replySaveFailed)
	}

	saved := sess.Pending
	sess.State = StateComplete
	sess.reset()

	log.Info("transaction persisted",
		"transaction_id", saved.ID,
		"counterparty", saved.CounterpartyName,
		"amount", saved.Amount,
		"phone", saved.CounterpartyPhone,
	)

	return savedReply(saved, spoken)
}

// knownPhone looks up the counterparty's last recorded number to enrich
// the phone prompt. Best effort: lookup failures only log.
func (e *Engine) knownPhone(ctx context.Context, trx *model.Transaction) string {
	lookupCtx, cancel := context.WithTimeout(ctx, e.opts.StoreTimeout)
	defer cancel()

	previous, err := e.store.LookupCounterparty(lookupCtx, trx.OwnerID, trx.CounterpartyName)
	if err != nil {
		e.logger.WithError(err).Warn("counterparty lookup failed", "counterparty", trx.CounterpartyName)
		return ""
	}
	if previous == nil {
		return ""
	}
	return previous.CounterpartyPhone
}

// lockSession returns the registry entry for a chat identity with its
// lock held. The sweep may delete an entry between the registry fetch and
// the lock acquisition, so membership is re-checked under registryMu once
// the lock is taken; a stale entry is released and re-fetched. The sweep
// only takes session locks via TryLock, so the lock order here cannot
// deadlock against it.
func (e *Engine) lockSession(chatID string) *Session {
	for {
		sess := e.session(chatID)
		sess.mu.Lock()

		e.registryMu.Lock()
		current := e.sessions[chatID]
		e.registryMu.Unlock()

		if current == sess {
			return sess
		}
		sess.mu.Unlock()
	}
}

// session returns the registry entry for a chat identity, creating it
// lazily. The registry lock is held only for the map access.
func (e *Engine) session(chatID string) *Session {
	e.registryMu.Lock()
	defer e.registryMu.Unlock()

	sess, ok := e.sessions[chatID]
	if !ok {
		sess = &Session{ID: chatID, State: StateIdle}
		e.sessions[chatID] = sess
	}
	return sess
}

// ActiveSessions counts sessions currently holding a pending transaction.
func (e *Engine) ActiveSessions() int {
	e.registryMu.Lock()
	defer e.registryMu.Unlock()

	count := 0
	for _, sess := range e.sessions {
		if sess.State == StateAwaitingPhone {
			count++
		}
	}
	return count
}

// SweepExpired drops sessions past the expiry window and returns how many
// were removed. Expiry is also checked opportunistically on access, so the
// sweep only reclaims memory for conversations that went silent.
func (e *Engine) SweepExpired() int {
	e.registryMu.Lock()
	defer e.registryMu.Unlock()

	now := time.Now()
	removed := 0
	for chatID, sess := range e.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.expired(now, e.opts.SessionExpiry) {
			sess.reset()
			delete(e.sessions, chatID)
			removed++
		}
		sess.mu.Unlock()
	}
	return removed
}

// SweepPeriodically runs SweepExpired on an interval until ctx ends.
func (e *Engine) SweepPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := e.SweepExpired(); removed > 0 {
				e.logger.Info("swept expired sessions", "count", removed)
			}
		}
	}
}
