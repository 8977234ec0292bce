package apiclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// LoggingTransport tags every request with a request id and logs its
// outcome. Base defaults to http.DefaultTransport.
type LoggingTransport struct {
	Base http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	logger := log.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Logger()
	req = req.WithContext(logger.WithContext(req.Context()))

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error().Err(err).Dur("duration", elapsed).Msg("request failed")
		return nil, err
	}

	var event *zerolog.Event
	if resp.StatusCode >= http.StatusBadRequest {
		event = logger.Warn()
	} else {
		event = logger.Debug()
	}
	event.Int("status", resp.StatusCode).Dur("duration", elapsed).Msg("request completed")

	return resp, nil
}
