// Tests of the HTTP publish trigger bridging submissions to the stream endpoint.

package sse

import (
	"Quorum/internal/entity"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisherPostsTheQuestion(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	publisher := NewHTTPPublisher(srv.URL, apiTestLogger)
	publisher.Publish(context.Background(), entity.Question{
		ID:       "cf3rhbgquivnvp3hirq0",
		Name:     "Anonymous",
		Category: "Programming",
		Question: "What does the race detector actually instrument?",
	})

	assert.Equal(t, "application/json", gotContentType)
	var request entity.SSEPublishRequest
	assert.NoError(t, json.Unmarshal(gotBody, &request))
	assert.NotNil(t, request.Question)
	assert.Equal(t, "cf3rhbgquivnvp3hirq0", request.Question.ID)
}

func TestPublisherSwallowsUnreachableEndpoint(t *testing.T) {
	// Nothing listens here, the trigger must fail quietly
	publisher := NewHTTPPublisher("http://127.0.0.1:1/api/questions/stream", apiTestLogger)
	publisher.Publish(context.Background(), entity.Question{
		ID:       "cf3rhbgquivnvp3hirq1",
		Category: "Other",
		Question: "Will this broadcast quietly disappear?",
	})
}

func TestPublisherSwallowsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	publisher := NewHTTPPublisher(srv.URL, apiTestLogger)
	publisher.Publish(context.Background(), entity.Question{
		ID:       "cf3rhbgquivnvp3hirq2",
		Category: "Other",
		Question: "Is a rejected trigger still a non-event?",
	})
}
