// API tests of the question routes through the mock gin router.

package question

import (
	"Quorum/internal/entity"
	"Quorum/internal/test"
	"bytes"
	"context"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

var (
	apiRouter     *gin.Engine
	apiRepo       *fakeQuestionRepo
	apiRouterOnce sync.Once
)

// User cookie consumed by MockAuthMiddleware.
var apiUserCookie *http.Cookie = &http.Cookie{
	Name:  "user",
	Value: "gopher_dev",
}

// Lazily wires the question routes onto the shared mock router.
func setupQuestionRouter() {
	apiRouterOnce.Do(func() {
		if os.Getenv("GIN_MODE") == "" {
			os.Setenv("GIN_MODE", gin.TestMode)
		}
		apiRouter = test.MockRouter()
		apiRepo = newFakeQuestionRepo()
		service := newTestService(apiRepo, newRecordingPublisher())
		APIHandlers(
			apiRouter,
			service,
			test.MockAuthMiddleware(questionTestLogger),
			test.MockAdminMiddleware(questionTestLogger),
			questionTestLogger,
		)
	})
}

func TestSubmitQuestionAPI(t *testing.T) {
	setupQuestionRouter()

	// Anonymous submission needs no auth at all
	body := []byte(`{"category": "Programming", "question": "What is the empty struct actually good for?"}`)
	w := test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions",
		Body:         bytes.NewReader(body),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{"Content-Type": "application/json"},
	})
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"Anonymous"`)

	// Unserializable payload
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions",
		Body:         bytes.NewReader([]byte(`not json at all`)),
		WantResponse: []int{http.StatusUnprocessableEntity},
		Headers:      map[string]string{"Content-Type": "application/json"},
	})

	// Valid JSON failing entity validation
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions",
		Body:         bytes.NewReader([]byte(`{"category": "Astrology", "question": "Star signs for load balancers?"}`)),
		WantResponse: []int{http.StatusBadRequest},
		Headers:      map[string]string{"Content-Type": "application/json"},
	})
}

func TestListQuestionsAPI(t *testing.T) {
	setupQuestionRouter()

	w := test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/questions?page=1&limit=10",
		WantResponse: []int{http.StatusOK},
	})
	assert.Contains(t, w.Body.String(), `"questions"`)
	assert.Contains(t, w.Body.String(), `"pagination"`)

	// Unknown verification filter fails validation
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/questions?verificationStatus=maybe",
		WantResponse: []int{http.StatusBadRequest},
	})
}

func TestReactAPI(t *testing.T) {
	setupQuestionRouter()
	apiRepo.SetQuestion(context.Background(), questionTestLogger, entity.Question{
		ID: "react-target", Category: "Other", Question: "Anybody out there still reading these?",
	})

	// No auth cookies, the middleware blocks the request
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions/react-target/like",
		Body:         bytes.NewReader([]byte(`{"action": "like"}`)),
		WantResponse: []int{http.StatusUnauthorized},
		Headers:      map[string]string{"Content-Type": "application/json"},
	})

	w := test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions/react-target/like",
		Body:         bytes.NewReader([]byte(`{"action": "like"}`)),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{"Content-Type": "application/json"},
		Cookie:       []*http.Cookie{test.MockAuthAllowCookie, apiUserCookie},
	})
	assert.Contains(t, w.Body.String(), `"gopher_dev"`)

	// Unknown action fails validation
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/questions/react-target/like",
		Body:         bytes.NewReader([]byte(`{"action": "boost"}`)),
		WantResponse: []int{http.StatusBadRequest},
		Headers:      map[string]string{"Content-Type": "application/json"},
		Cookie:       []*http.Cookie{test.MockAuthAllowCookie, apiUserCookie},
	})
}

func TestAdminModerationAPI(t *testing.T) {
	setupQuestionRouter()
	apiRepo.SetQuestion(context.Background(), questionTestLogger, entity.Question{
		ID: "mod-target", Category: "Other", Question: "Will the moderators find this one?",
	})

	// Admin routes still sit behind the auth middleware
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/admin/stats",
		WantResponse: []int{http.StatusUnauthorized},
	})

	adminCookies := []*http.Cookie{test.MockAuthAllowCookie, apiUserCookie}

	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodPatch,
		Path:         "/api/admin/questions/mod-target/verify",
		WantResponse: []int{http.StatusOK},
		Cookie:       adminCookies,
	})
	stored, _ := apiRepo.GetQuestion(context.Background(), questionTestLogger, "mod-target")
	assert.True(t, stored.IsVerified)

	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodDelete,
		Path:         "/api/admin/questions/mod-target",
		WantResponse: []int{http.StatusOK},
		Cookie:       adminCookies,
	})
	stored, _ = apiRepo.GetQuestion(context.Background(), questionTestLogger, "mod-target")
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, "gopher_dev", stored.DeletedBy)

	// Unknown question comes back as 404
	test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodDelete,
		Path:         "/api/admin/questions/missing",
		WantResponse: []int{http.StatusNotFound},
		Cookie:       adminCookies,
	})

	w := test.ExecuteAPITest(questionTestLogger, t, apiRouter, test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/admin/stats",
		WantResponse: []int{http.StatusOK},
		Cookie:       adminCookies,
	})
	assert.Contains(t, w.Body.String(), `"stats"`)
}
