package transport

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrAttemptNotFound),
		errors.Is(err, model.ErrResultNotReady),
		errors.Is(err, model.ErrResultNotArchived):
		return 404
	case errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrNoImage),
		errors.Is(err, model.ErrUnreadableFile):
		return 400
	case errors.Is(err, model.ErrAnimationInProgress):
		return 409
	case errors.Is(err, model.ErrFileTooLarge):
		return 413
	case errors.Is(err, model.ErrTransformFailed):
		return 502
	default:
		return 500
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
