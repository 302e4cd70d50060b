// Package telegram is a chat frontend for the animate workflow: one chat is one session
package telegram

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/codec"
	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/session"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// BotAPI - подмножество *tgbotapi.BotAPI, которое нужно роутеру
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Sessions interface {
	GetOrCreate(id uuid.UUID) *session.Controller
}

const (
	helpText        = "Send me a photo and then /animate to turn it into an animation-style picture.\nCommands: /animate, /remove, /status"
	receivedText    = "Image received. Send /animate to transform it."
	removedText     = "Image removed."
	animatingText   = "Animating..."
	inProgressText  = "Animation is already in progress."
	notImageText    = "Please send an image (photo or image file)."
	tooLargeText    = "The image is too large."
	unknownCmdText  = "Unknown command. Try /start."
	downloadErrText = "Failed to download the image. Please try again."
)

type Router struct {
	bot          BotAPI
	sessions     Sessions
	maxBytes     int64
	awaitTimeout time.Duration
	fetch        func(ctx context.Context, url string, limit int64) ([]byte, error)

	chats sync.Map // chatID -> uuid.UUID
}

func NewRouter(bot BotAPI, sessions Sessions, maxUploadBytes int64) *Router {
	return &Router{
		bot:          bot,
		sessions:     sessions,
		maxBytes:     maxUploadBytes,
		awaitTimeout: 3 * time.Minute,
		fetch:        download,
	}
}

// sessionID выдает чату случайный id при первом обращении, дальше он не меняется
func (r *Router) sessionID(chatID int64) uuid.UUID {
	if id, ok := r.chats.Load(chatID); ok {
		return id.(uuid.UUID)
	}
	id, _ := r.chats.LoadOrStore(chatID, uuid.New())
	return id.(uuid.UUID)
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.handleCommand(ctx, cid, msg.Command())
		return
	}

	switch {
	case len(msg.Photo) > 0:
		// последний размер - самый большой
		ph := msg.Photo[len(msg.Photo)-1]
		r.acceptImage(ctx, cid, ph.FileID, int64(ph.FileSize), "photo.jpg", model.JPEG)
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		doc := msg.Document
		r.acceptImage(ctx, cid, doc.FileID, int64(doc.FileSize), doc.FileName, doc.MimeType)
	default:
		r.send(cid, notImageText)
	}
}

func (r *Router) handleCommand(ctx context.Context, cid int64, cmd string) {
	ctrl := r.sessions.GetOrCreate(r.sessionID(cid))

	switch cmd {
	case "start", "help":
		r.send(cid, helpText)
	case "animate":
		r.animate(ctx, cid, ctrl)
	case "remove":
		if _, err := ctrl.Remove(ctx); err != nil {
			zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to remove image")
			return
		}
		r.send(cid, removedText)
	case "status":
		st, err := ctrl.Snapshot(ctx)
		if err != nil {
			zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to read session state")
			return
		}
		r.send(cid, statusText(st))
	default:
		r.send(cid, unknownCmdText)
	}
}

func (r *Router) acceptImage(ctx context.Context, cid int64, fileID string, size int64, name, mime string) {
	if r.maxBytes > 0 && size > r.maxBytes {
		r.send(cid, tooLargeText)
		return
	}

	url, err := r.bot.GetFileDirectURL(fileID)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to resolve telegram file")
		r.send(cid, downloadErrText)
		return
	}
	data, err := r.fetch(ctx, url, r.maxBytes)
	if errors.Is(err, errTooLarge) {
		r.send(cid, tooLargeText)
		return
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to download telegram file")
		r.send(cid, downloadErrText)
		return
	}

	img, err := codec.Read(bytes.NewReader(data), name, mime)
	if err != nil {
		r.send(cid, downloadErrText)
		return
	}

	ctrl := r.sessions.GetOrCreate(r.sessionID(cid))
	if _, err := ctrl.Upload(ctx, img); err != nil {
		zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to upload image to session")
		return
	}
	r.send(cid, receivedText)
}

func (r *Router) animate(ctx context.Context, cid int64, ctrl *session.Controller) {
	_, err := ctrl.Animate(ctx)
	switch {
	case errors.Is(err, model.ErrNoImage):
		r.send(cid, model.MsgUploadFirst)
		return
	case errors.Is(err, model.ErrAnimationInProgress):
		r.send(cid, inProgressText)
		return
	case err != nil:
		zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to start animation")
		return
	}

	r.send(cid, animatingText)
	// ждем результат отдельно, чтобы не держать цикл обновлений
	go r.deliver(ctx, cid, ctrl)
}

func (r *Router) deliver(ctx context.Context, cid int64, ctrl *session.Controller) {
	waitCtx, cancel := context.WithTimeout(ctx, r.awaitTimeout)
	defer cancel()

	st, err := ctrl.Await(waitCtx)
	if err != nil {
		zlog.Logger.Warn().Err(err).Int64("chat", cid).Msg("Stopped waiting for animation")
		return
	}

	switch st.Status {
	case model.StatusDone:
		data, mime, err := ctrl.Result(ctx)
		if err != nil {
			zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to read animation result")
			r.send(cid, model.MsgAnimationFailed)
			return
		}
		ext := model.GetImageFileExt[mime]
		if ext == "" {
			ext = ".png"
		}
		photo := tgbotapi.NewPhoto(cid, tgbotapi.FileBytes{Name: "animated" + ext, Bytes: data})
		if _, err := r.bot.Send(photo); err != nil {
			zlog.Logger.Error().Err(err).Int64("chat", cid).Msg("Failed to send animated image")
		}
	case model.StatusFailed:
		r.send(cid, st.ErrMsg)
	}
	// idle/ready: картинку заменили или удалили, пока шел запрос - отвечать нечем
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		zlog.Logger.Error().Err(err).Int64("chat", chatID).Msg("Failed to send telegram message")
	}
}

func statusText(st model.SessionState) string {
	switch st.Status {
	case model.StatusIdle:
		return "No image yet. Send a photo."
	case model.StatusReady:
		return "Image " + st.ImageName + " is ready. Send /animate."
	case model.StatusAnimating:
		return animatingText
	case model.StatusDone:
		return "Animation is done. Send /animate to try again or a new photo to start over."
	default:
		return st.ErrMsg
	}
}
