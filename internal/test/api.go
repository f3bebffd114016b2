package test

import (
	"Quorum/pkg/log"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Format of Request helper ExecuteAPITest() handles
type RequestAPITest struct {
	Method       string            // Method of API request - [GET, POST, PUT, DELETE . . .]
	Path         string            // API Path
	Body         *bytes.Reader     // Request Body
	WantResponse []int             // Expected Response according to request
	Headers      map[string]string // Request headers
	Cookie       []*http.Cookie    // Request cookies
}

// Helper to execute API tests in Quorum.
// Returns the recorder so callers can inspect the response body if needed.
func ExecuteAPITest(logger log.Logger, t *testing.T, router *gin.Engine, request RequestAPITest) *httptest.ResponseRecorder {
	// Setup the test request
	var req *http.Request
	var reqerr error
	if request.Body != nil {
		req, reqerr = http.NewRequest(request.Method, request.Path, request.Body)
	} else {
		req, reqerr = http.NewRequest(request.Method, request.Path, nil)
	}
	if reqerr != nil {
		// Error in NewRequest
		logger.Error().Err(reqerr).Msg("Error occured during calling NewRequest in ExecuteAPITest()")
	}
	for key, val := range request.Headers {
		req.Header.Set(key, val)
	}
	for _, cookie := range request.Cookie {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	// Assert the response
	assert.Contains(t, request.WantResponse, w.Code)
	return w
}
