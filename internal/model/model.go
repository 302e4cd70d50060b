// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusReady     Status = "ready"
	StatusAnimating Status = "animating"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Instruction sent along with every photo
const AnimateInstruction = "Transform this photo into a vibrant, high-quality animation style. Emphasize dynamic lines and expressive colors, similar to a modern animated feature film."

// Тексты для конечного пользователя - внутренние детали ошибок сюда не попадают
const (
	MsgUploadFirst     = "Please upload an image first."
	MsgAnimationFailed = "Failed to animate image. Please try again."
)

//---------------------

type UploadedImage struct {
	Name     string
	MimeType string
	Data     []byte
}

func (u *UploadedImage) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}

// PreviewHandle - data URI, по которому картинку можно отрисовать без сети
type PreviewHandle string

type TransformRequest struct {
	Payload     string // base64
	MimeType    string
	Instruction string
}

type TransformResult struct {
	DataURI  string
	MimeType string
}

type SessionState struct {
	ID         uuid.UUID     `json:"session_id"`
	Status     Status        `json:"status"`
	ImageName  string        `json:"image_name,omitempty"`
	ImageMime  string        `json:"image_mime,omitempty"`
	ImageSize  int64         `json:"image_size,omitempty"`
	Preview    PreviewHandle `json:"preview,omitempty"`
	Result     string        `json:"result,omitempty"`
	IsLoading  bool          `json:"is_loading"`
	CanAnimate bool          `json:"can_animate"`
	ErrMsg     string        `json:"error,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Attempt - одна завершенная попытка анимации, уходит в архив
type Attempt struct {
	UID          uuid.UUID  `json:"uid"`
	SessionID    uuid.UUID  `json:"session_id"`
	Status       Status     `json:"status"`
	SourceMime   string     `json:"source_mime"`
	SourceSize   int64      `json:"source_size"`
	ResultMime   string     `json:"result_mime,omitempty"`
	ResultKey    string     `json:"-"`
	ThumbnailKey string     `json:"-"`
	ErrMsg       string     `json:"error,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	SettledAt    *time.Time `json:"settled_at,omitempty"`
	ResultData   []byte     `json:"-"`
}

// AttemptEvent - сообщение в кафку о завершении попытки
type AttemptEvent struct {
	UID        string    `json:"uid"`
	SessionID  string    `json:"session_id"`
	Status     Status    `json:"status"`
	ResultMime string    `json:"result_mime,omitempty"`
	ResultKey  string    `json:"result_key,omitempty"`
	SettledAt  time.Time `json:"settled_at"`
}

//-------------------

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByUUID    = "uid"
	ByCreated = "created"
	OrderASC  = "ascend"
	OrderDESC = "descend"
)

// ------------------

var (
	ErrCommon500           error = errors.New("something went wrong. Try again later") // 500
	ErrIncorrectID         error = errors.New("incorrect UUID")                        // 400
	ErrSessionNotFound     error = errors.New("specified session doesn't exist")       // 404
	ErrAttemptNotFound     error = errors.New("specified attempt doesn't exist")       // 404
	ErrResultNotReady      error = errors.New("no animated image in this session yet") // 404
	ErrResultNotArchived   error = errors.New("attempt has no archived result")        // 404
	ErrNoImage             error = errors.New(MsgUploadFirst)                          // 400
	ErrUnreadableFile      error = errors.New("failed to read uploaded file")          // 400
	ErrFileTooLarge        error = errors.New("uploaded file is too large")            // 413
	ErrAnimationInProgress error = errors.New("animation is already in progress")      // 409
	ErrTransformFailed     error = errors.New(MsgAnimationFailed)                      // 502
	ErrMissingCredential   error = errors.New("GEMINI_API_KEY environment variable is not set")
	ErrSessionClosed       error = errors.New("session is closed")
)

//--------------------

const (
	JPEG    = "image/jpeg"
	PNG     = "image/png"
	GIF     = "image/gif"
	WEBP    = "image/webp"
	Generic = PNG // fallback, если сервис вернул не image/* тип
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	WEBP: ".webp",
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
}
