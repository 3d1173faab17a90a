package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/sdr-coach/internal/coach"
)

// HTTPStatus maps pipeline and store errors to response codes.
func HTTPStatus(err error) int {
	var (
		notFound    *coach.NotFoundError
		configErr   *coach.ConfigurationError
		upstreamErr *coach.UpstreamError
		persistErr  *coach.PersistenceError
		mediaErr    *coach.UnsupportedMediaTypeError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &mediaErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.As(err, &persistErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
