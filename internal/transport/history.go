package transport

import (
	"context"
	"io"
	"log"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type HistoryHandler struct {
	service HistoryService
}

type HistoryService interface {
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) // получить список
	Get(ctx context.Context, id string) (*model.Attempt, error)
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)
	LoadThumbnail(ctx context.Context, id string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, id string) error // удалить как в базе, так и в minio
}

func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{
		service: svc,
	}
}

func (h HistoryHandler) GetAll(ctx *ginext.Context) {
	var req model.ListRequest

	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse query-params"})
		return
	}

	res, err := h.service.GetList(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h HistoryHandler) Get(ctx *ginext.Context) {
	res, err := h.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h HistoryHandler) LoadResult(ctx *ginext.Context) {
	h.stream(ctx, h.service.LoadResult)
}

func (h HistoryHandler) LoadThumbnail(ctx *ginext.Context) {
	h.stream(ctx, h.service.LoadThumbnail)
}

func (h HistoryHandler) stream(ctx *ginext.Context, load func(ctx context.Context, id string) (io.ReadCloser, string, error)) {
	id := ctx.Param("id")

	res, cType, err := load(ctx.Request.Context(), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for attempt id %q: %v", n, id, err)
	}
}

func (h HistoryHandler) Delete(ctx *ginext.Context) {
	id := ctx.Param("id")
	if err := h.service.Delete(ctx.Request.Context(), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}
