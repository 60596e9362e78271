package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// GzipMiddleware compresses responses the client accepts gzip for. Websocket
// routes must not be wrapped.
func GzipMiddleware(next http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(512))
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure gzip, serving uncompressed")
		return next
	}
	return wrapper(next)
}
