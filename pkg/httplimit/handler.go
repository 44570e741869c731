// Package httplimit wraps an http.Handler with rate limiting backed
// by the ratelimit package. It is thin glue: the decision logic and
// all shared state live behind the Limiter.
package httplimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/serverlesskit/ratelimit/internal/log"
	"github.com/serverlesskit/ratelimit/ratelimit"
)

const (
	headerLimit      = "X-Ratelimit-Limit"
	headerRemaining  = "X-Ratelimit-Remaining"
	headerReset      = "X-Ratelimit-Reset"
	headerRetryAfter = "Retry-After"
)

type handler struct {
	next      http.Handler
	limiter   *ratelimit.Limiter
	extractor Extractor
}

// NewHandler wraps next with rate limiting. Denied or failed requests
// are answered directly and never reach the wrapped handler.
func NewHandler(next http.Handler, limiter *ratelimit.Limiter, extractor Extractor) http.Handler {
	return &handler{
		next:      next,
		limiter:   limiter,
		extractor: extractor,
	}
}

func (h *handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	// Request id for correlating limiter decisions in the logs.
	requestID := uuid.NewString()

	identifier, err := h.extractor.Extract(request)
	if err != nil {
		h.writeResponse(writer, http.StatusBadRequest,
			"failed to collect rate limiting identifier from request: %v", err)
		return
	}

	result, err := h.limiter.Limit(request.Context(), identifier)
	if err != nil {
		log.Logger().Error("rate limit evaluation failed",
			zap.String("request_id", requestID),
			zap.String("identifier", identifier),
			zap.Error(err))
		h.writeResponse(writer, http.StatusInternalServerError,
			"failed to rate limit request: %v", err)
		return
	}

	// Emitted on allow and deny alike so clients can pace themselves.
	writer.Header().Set(headerLimit, strconv.FormatInt(result.Limit, 10))
	writer.Header().Set(headerRemaining, strconv.FormatInt(result.Remaining, 10))
	writer.Header().Set(headerReset, strconv.FormatInt(result.Reset, 10))

	if !result.Allowed {
		retryAfter := time.Until(time.UnixMilli(result.Reset))
		if retryAfter < 0 {
			retryAfter = 0
		}
		writer.Header().Set(headerRetryAfter,
			strconv.FormatInt(int64(retryAfter/time.Second)+1, 10))

		log.Logger().Info("request rejected by rate limiter",
			zap.String("request_id", requestID),
			zap.String("identifier", identifier),
			zap.Int64("reset_ms", result.Reset))
		h.writeResponse(writer, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	h.next.ServeHTTP(writer, request)
}

func (h *handler) writeResponse(writer http.ResponseWriter, status int, msg string, args ...interface{}) {
	writer.Header().Set("Content-Type", "text/plain")
	writer.WriteHeader(status)
	if _, err := writer.Write([]byte(fmt.Sprintf(msg, args...))); err != nil {
		log.Logger().Error("failed to write response body", zap.Error(err))
	}
}
