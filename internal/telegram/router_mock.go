package telegram

import (
	"context"
	"sync"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	urlFn   func(fileID string) (string, error)
	updates func(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	return b.urlFn(fileID)
}

func (b *fakeBot) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	return b.updates(cfg)
}

// texts - все отправленные текстовые сообщения
func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) photos() []tgbotapi.PhotoConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.PhotoConfig
	for _, c := range b.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type mockTransformer struct {
	submitFn func(ctx context.Context, req model.TransformRequest) (model.TransformResult, error)
}

func (m *mockTransformer) Submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
	return m.submitFn(ctx, req)
}
