package dispatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runmatch/internal/task"
)

func newTestRouter(e *testEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(e.dispatcher).RegisterRoutes(r.Group("/api/dispatch"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerDispatchAndStatus(t *testing.T) {
	e := newTestEngine(t, time.Hour)
	e.addPerformer(t, "A", 5)
	e.addTask(t, "t1", "food")
	r := newTestRouter(e)

	w := doJSON(t, r, http.MethodPost, "/api/dispatch/tasks/t1", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	// Starting the same task twice is a conflict.
	e.waitForOffer(t, "t1", 1)
	w = doJSON(t, r, http.MethodPost, "/api/dispatch/tasks/t1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/dispatch/tasks/t1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)
	assert.Contains(t, w.Body.String(), `"attempts":1`)
}

func TestHandlerUnknownTaskIs404(t *testing.T) {
	e := newTestEngine(t, time.Hour)
	r := newTestRouter(e)

	for _, call := range []struct{ method, path string }{
		{http.MethodPost, "/api/dispatch/tasks/nope"},
		{http.MethodGet, "/api/dispatch/tasks/nope"},
		{http.MethodPost, "/api/dispatch/tasks/nope/cancel"},
	} {
		w := doJSON(t, r, call.method, call.path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", call.method, call.path)
	}
}

func TestHandlerAcceptFlow(t *testing.T) {
	e := newTestEngine(t, time.Hour)
	e.addPerformer(t, "A", 5)
	e.addTask(t, "t1", "food")
	r := newTestRouter(e)

	require.NoError(t, e.dispatcher.Dispatch(context.Background(), "t1"))
	first := e.waitForOffer(t, "t1", 1)

	w := doJSON(t, r, http.MethodPost, "/api/dispatch/offers/"+first.ID+"/accept", `{"performer_id":"A"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "delivered")
	e.waitForTerminal(t, "t1")

	// Replaying the accept is reported as an ignored no-op, not an error.
	w = doJSON(t, r, http.MethodPost, "/api/dispatch/offers/"+first.ID+"/accept", `{"performer_id":"A"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestHandlerSignalValidation(t *testing.T) {
	e := newTestEngine(t, time.Hour)
	r := newTestRouter(e)

	w := doJSON(t, r, http.MethodPost, "/api/dispatch/offers/o1/accept", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "performer_id is required")

	w = doJSON(t, r, http.MethodPost, "/api/dispatch/offers/o1/decline", `{"performer_id":"A"}`)
	assert.Equal(t, http.StatusNotFound, w.Code, "unknown offer")
}

func TestHandlerInvalidTaskIs400(t *testing.T) {
	e := newTestEngine(t, time.Hour)
	r := newTestRouter(e)
	e.addPerformer(t, "A", 5)
	require.NoError(t, e.tasks.Create(context.Background(), &task.Task{
		ID:     "bad",
		Kind:   task.KindErrand,
		Origin: testOrigin,
		Status: task.StatusPending,
	}))

	w := doJSON(t, r, http.MethodPost, "/api/dispatch/tasks/bad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
