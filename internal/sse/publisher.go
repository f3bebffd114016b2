// Publisher bridges the question submission flow to the stream endpoint.
// The broadcast is a best-effort side channel, never part of the write's consistency guarantee.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/pkg/log"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Publisher pushes freshly stored questions into the realtime stream.
type Publisher interface {
	// Publish fires the new-question trigger. Every failure is swallowed after
	// a warning log, question submission must not fail because of it.
	Publish(ctx context.Context, question entity.Question)
}

// httpPublisher POSTs the question to the stream endpoint over loopback HTTP,
// the same trigger an external submission service would use.
type httpPublisher struct {
	endpoint string
	client   *http.Client
	logger   log.Logger
}

// NewHTTPPublisher returns a Publisher targeting the given stream endpoint URL.
func NewHTTPPublisher(endpoint string, logger log.Logger) Publisher {
	return httpPublisher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 3 * time.Second},
		logger:   logger,
	}
}

func (p httpPublisher) Publish(ctx context.Context, question entity.Question) {
	body, mrsherr := json.Marshal(entity.SSEPublishRequest{Question: &question})
	if mrsherr != nil {
		p.logger.WithCtx(ctx).Warn().Err(mrsherr).Msg("Couldn't serialize question for the stream endpoint")
		return
	}
	request, reqerr := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if reqerr != nil {
		p.logger.WithCtx(ctx).Warn().Err(reqerr).Msg("Couldn't build publish trigger request")
		return
	}
	request.Header.Set("Content-Type", "application/json")

	response, herr := p.client.Do(request)
	if herr != nil {
		p.logger.WithCtx(ctx).Warn().Err(herr).Msg("Couldn't reach the stream endpoint, question broadcast skipped")
		return
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		p.logger.WithCtx(ctx).Warn().Msgf("Stream endpoint replied %d to publish trigger", response.StatusCode)
	}
}
