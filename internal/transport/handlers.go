// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type SessionHandler struct {
	service  SessionService
	maxBytes int64
}

type SessionService interface {
	Create(ctx context.Context) (model.SessionState, error)
	Snapshot(ctx context.Context, id string, wait bool) (model.SessionState, error)
	Upload(ctx context.Context, id string, r io.Reader, name, mime string) (model.SessionState, error)
	Remove(ctx context.Context, id string) (model.SessionState, error)
	Animate(ctx context.Context, id string) (model.SessionState, error)
	Result(ctx context.Context, id string) ([]byte, string, error) // готовая картинка целиком
	Delete(ctx context.Context, id string) error
}

func NewSessionHandler(svc SessionService, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{
		service:  svc,
		maxBytes: maxUploadBytes,
	}
}

func (h SessionHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h SessionHandler) Create(ctx *ginext.Context) {
	res, err := h.service.Create(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

func (h SessionHandler) Get(ctx *ginext.Context) {
	wait, _ := strconv.ParseBool(ctx.Query("wait"))

	res, err := h.service.Snapshot(ctx.Request.Context(), ctx.Param("id"), wait)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h SessionHandler) Upload(ctx *ginext.Context) {
	id := ctx.Param("id")
	if h.maxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxBytes)
	}

	// парсинг файла: отсутствие файла - это сброс сессии, а не ошибка
	var res model.SessionState
	var err error
	imageFile, imageHeader, ferr := ctx.Request.FormFile("image")
	switch {
	case ferr == nil:
		defer closeFileFlow(imageFile)
		res, err = h.service.Upload(ctx.Request.Context(), id, imageFile, imageHeader.Filename, imageHeader.Header.Get("Content-Type"))
	case errors.Is(ferr, http.ErrMissingFile), errors.Is(ferr, http.ErrNotMultipart):
		res, err = h.service.Upload(ctx.Request.Context(), id, nil, "", "")
	case isTooLarge(ferr):
		err = model.ErrFileTooLarge
	default:
		ctx.JSON(400, map[string]string{"error": "failed to parse multipart form"})
		return
	}

	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h SessionHandler) RemoveImage(ctx *ginext.Context) {
	res, err := h.service.Remove(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h SessionHandler) Animate(ctx *ginext.Context) {
	res, err := h.service.Animate(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(202, res)
}

func (h SessionHandler) Result(ctx *ginext.Context) {
	data, cType, err := h.service.Result(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Data(200, cType, data)
}

func (h SessionHandler) Delete(ctx *ginext.Context) {
	if err := h.service.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
