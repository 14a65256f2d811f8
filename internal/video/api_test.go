// Video interaction API tests in Reelo.

package video

import (
	"Reelo/internal/test"
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Global instance of gin MockRouter to be used during video API testing.
var mockRouter *gin.Engine

// Fakes backing the service wired into the mock router.
var apiRepo *fakeRepo
var apiRelay *fakeBroadcaster

// Helper to build up a mock router instance for testing Reelo.
func setupMockRouter() {
	mockRouter = test.MockRouter()

	// In-memory repository, the API contract doesn't need redis
	apiRepo = newFakeRepo()
	apiRelay = &fakeBroadcaster{}

	// Register internal package video handler
	service := NewService(apiRepo, apiRelay, logger)
	APIHandlers(mockRouter, service, test.MockAuthMiddleware(logger), logger)
}

func TestToggleLikeAPI(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/videos/42/like",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{"X-Auth-User": "me_Bill..Weber..23"},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), `"liked":true`)

	// Same caller toggling again takes the like back
	request.Body = bytes.NewReader([]byte{})
	response = test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), `"liked":false`)
}

func TestToggleLikeAPIWithoutAuth(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/videos/42/like",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusUnauthorized},
		Headers:      map[string]string{},
	}
	test.ExecuteAPITest(logger, t, mockRouter, request)
}

func TestCreateCommentAPI(t *testing.T) {
	body, mrserr := json.Marshal(map[string]string{"content": "This is awesome!"})
	if mrserr != nil {
		t.Fatal(mrserr)
	}
	request := test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/videos/42/comments",
		Body:         bytes.NewReader(body),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{"X-Auth-User": "me_Bill..Weber..23"},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), "This is awesome!")
}

func TestCreateCommentAPIValidationError(t *testing.T) {
	body, mrserr := json.Marshal(map[string]string{"content": ""})
	if mrserr != nil {
		t.Fatal(mrserr)
	}
	request := test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/videos/42/comments",
		Body:         bytes.NewReader(body),
		WantResponse: []int{http.StatusBadRequest},
		Headers:      map[string]string{"X-Auth-User": "me_Bill..Weber..23"},
	}
	test.ExecuteAPITest(logger, t, mockRouter, request)
}

func TestGetCommentsAPI(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/videos/42/comments",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), "comments")
}

func TestAddViewAPI(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodPost,
		Path:         "/api/videos/42/view",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{},
	}
	test.ExecuteAPITest(logger, t, mockRouter, request)
}

func TestGetStatsAPI(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/videos/42/stats",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), "likes_count")
}

func TestVideoAPIInvalidID(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/videos/zero/stats",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusBadRequest},
		Headers:      map[string]string{},
	}
	test.ExecuteAPITest(logger, t, mockRouter, request)
}
