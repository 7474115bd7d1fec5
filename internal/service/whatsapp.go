package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	qrterminal "github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"whatsapp-catat-hutang/internal/config"
	"whatsapp-catat-hutang/internal/engine"
	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/internal/voice"
	"whatsapp-catat-hutang/pkg/logger"
)

// WhatsAppService is the messaging transport adapter. It feeds inbound
// messages to the session engine and routes the returned outbound intent,
// invoking speech synthesis when the intent asks for a voice reply.
type WhatsAppService struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	logger    *logger.Logger
	engine    *engine.Engine
	speech    *SpeechService
	responder Responder
}

// NewWhatsAppService creates a new WhatsApp service
func NewWhatsAppService(cfg *config.WhatsAppConfig, log *logger.Logger) (*WhatsAppService, error) {
	ctx := context.Background()

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Info("Database directory ready", "path", dbDir)

	// Setup database for session storage
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", cfg.DBPath), waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	// Get first device or create new one
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	// Create WhatsApp client
	client := whatsmeow.NewClient(deviceStore, waLog.Noop)

	service := &WhatsAppService{
		client:    client,
		container: container,
		logger:    log,
	}

	return service, nil
}

// SetEngine sets the session engine that handles inbound messages
func (s *WhatsAppService) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetSpeechService sets the speech synthesis service for voice replies
func (s *WhatsAppService) SetSpeechService(speech *SpeechService) {
	s.speech = speech
}

// SetResponder sets the optional conversational reply generator
func (s *WhatsAppService) SetResponder(responder Responder) {
	s.responder = responder
}

// Connect connects to WhatsApp
func (s *WhatsAppService) Connect() error {
	// Check if we have a logged in session
	if s.client.Store.ID == nil {
		// No logged in session, need to pair with QR code
		s.logger.Info("No logged in session found, starting QR code pairing...")
		return s.connectWithQRLogin()
	}

	// We have a session, just connect
	s.logger.Info("Existing session found, connecting...")

	// Register event handler
	s.client.AddEventHandler(s.handleEvent)

	err := s.client.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.logger.Info("WhatsApp client connected successfully")
	return nil
}

// connectWithQRLogin pairs a new device via QR code using GetQRChannel
func (s *WhatsAppService) connectWithQRLogin() error {
	qrCount := 0

	qrChan, err := s.client.GetQRChannel(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	err = s.client.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to WhatsApp: %w", err)
	}

	s.logger.Info("Connected to WhatsApp, waiting for QR code...")

	for evt := range qrChan {
		if evt.Event == "code" {
			qrCount++

			// Render in terminal and also save a PNG for headless setups
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)

			qrFilename := "whatsapp-qrcode.png"
			if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, qrFilename); err != nil {
				s.logger.Error("Failed to generate QR code PNG", "error", err)
			}

			if qrCount == 1 {
				fmt.Println("\n📱 Scan the QR code above (or open whatsapp-qrcode.png):")
				fmt.Println("   WhatsApp > Settings > Linked Devices > Link a Device")
				fmt.Println("\n⏳ Waiting for scan... QR refreshes every ~20 seconds")
			} else {
				s.logger.Info("QR Code refreshed", "count", qrCount)
			}
			continue
		}

		s.logger.Info("QR channel event", "event", evt.Event)
		if s.client.IsLoggedIn() {
			s.logger.Info("Successfully logged in!")
			s.client.AddEventHandler(s.handleEvent)
			return nil
		}
		if evt.Event == "timeout" {
			return fmt.Errorf("QR code scan timeout")
		}
		if evt.Event == "error" {
			return fmt.Errorf("QR code error: %v", evt.Error)
		}
	}

	s.logger.Info("Login completed successfully")
	s.client.AddEventHandler(s.handleEvent)
	return nil
}

// Disconnect disconnects from WhatsApp
func (s *WhatsAppService) Disconnect() {
	s.client.Disconnect()
	s.logger.Info("WhatsApp client disconnected")
}

// IsConnected checks if client is connected
func (s *WhatsAppService) IsConnected() bool {
	return s.client.IsConnected()
}

// handleEvent handles WhatsApp events
func (s *WhatsAppService) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		s.handleIncomingMessage(v)
	case *events.Connected:
		s.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		s.logger.Warn("WhatsApp client disconnected")
	}
}

// handleIncomingMessage feeds one inbound message through the engine and
// delivers the resulting reply
func (s *WhatsAppService) handleIncomingMessage(evt *events.Message) {
	// Ignore our own messages
	if evt.Info.IsFromMe {
		return
	}

	if s.engine == nil {
		return
	}

	// Extract message content
	text := ""
	if evt.Message.Conversation != nil {
		text = *evt.Message.Conversation
	} else if evt.Message.ExtendedTextMessage != nil && evt.Message.ExtendedTextMessage.Text != nil {
		text = *evt.Message.ExtendedTextMessage.Text
	}
	if text == "" {
		return
	}

	msg := &model.IncomingMessage{
		MessageID:  evt.Info.ID,
		ChatID:     evt.Info.Chat.String(),
		SenderName: evt.Info.PushName,
		Text:       text,
		Timestamp:  evt.Info.Timestamp,
	}

	ctx := context.Background()
	reply := s.engine.HandleMessage(ctx, msg)

	// Messages with no transaction intent go to the reply generator when
	// one is configured; the engine's guidance text is the fallback.
	if reply.Kind == model.KindChat && s.responder != nil {
		directives := voice.Compose(voice.ComposeOptions{
			DisplayName:      msg.SenderName,
			IsVoiceRequested: reply.DeliverAs == model.DeliverVoice,
		})
		generated, err := s.responder.Generate(ctx, directives, msg.Text)
		if err != nil {
			s.logger.WithChatID(msg.ChatID).WithError(err).Warn("responder failed, using engine reply")
		} else if generated != "" {
			reply.Text = generated
		}
	}

	s.deliver(ctx, evt, reply)
}

// deliver routes the outbound intent, degrading voice to text when
// synthesis is unavailable or fails
func (s *WhatsAppService) deliver(ctx context.Context, evt *events.Message, reply *model.Reply) {
	log := s.logger.WithChatID(reply.ChatID)

	if reply.DeliverAs == model.DeliverVoice && s.speech != nil {
		audio, err := s.speech.Synthesize(ctx, reply.Text)
		if err != nil {
			log.WithError(err).Error("Speech synthesis failed, falling back to text")
		} else if err := s.sendVoiceNote(ctx, evt, audio); err != nil {
			log.WithError(err).Error("Failed to send voice note, falling back to text")
		} else {
			log.Info("Voice reply delivered", "bytes", len(audio))
			return
		}
	}

	if _, err := s.sendText(ctx, evt, reply.Text); err != nil {
		log.WithError(err).Error("Failed to send reply")
		return
	}
	log.Info("Reply delivered", "deliver_as", reply.DeliverAs, "kind", reply.Kind)
}

// sendText sends a text message back to the originating chat
func (s *WhatsAppService) sendText(ctx context.Context, evt *events.Message, text string) (string, error) {
	if !s.IsConnected() {
		return "", fmt.Errorf("WhatsApp client not connected")
	}

	message := &waProto.Message{
		Conversation: &text,
	}

	resp, err := s.client.SendMessage(ctx, evt.Info.Chat, message)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return resp.ID, nil
}

// sendVoiceNote uploads synthesized audio and sends it as a push-to-talk
// voice message
func (s *WhatsAppService) sendVoiceNote(ctx context.Context, evt *events.Message, audio []byte) error {
	if !s.IsConnected() {
		return fmt.Errorf("WhatsApp client not connected")
	}

	uploaded, err := s.client.Upload(ctx, audio, whatsmeow.MediaAudio)
	if err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}

	message := &waProto.Message{
		AudioMessage: &waProto.AudioMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String("audio/ogg; codecs=opus"),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			PTT:           proto.Bool(true),
		},
	}

	if _, err := s.client.SendMessage(ctx, evt.Info.Chat, message); err != nil {
		return fmt.Errorf("failed to send voice note: %w", err)
	}
	return nil
}

// GetConnectionStatus returns connection status information
func (s *WhatsAppService) GetConnectionStatus() map[string]interface{} {
	status := map[string]interface{}{
		"connected": s.IsConnected(),
	}

	if s.client.Store.ID != nil {
		status["phone"] = s.client.Store.ID.User
		status["device"] = "whatsapp-catat-hutang"
	}

	return status
}
