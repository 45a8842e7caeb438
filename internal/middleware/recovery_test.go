package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
)

func newPanickingRouter(bare ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Recovery(bare...))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	r.POST("/notices/dismiss", func(c *gin.Context) { panic("store exploded") })
	return r
}

func TestRecoveryWritesErrorEnvelope(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	t.Cleanup(func() { logger.Replace(nil) })
	logger.Replace(zap.New(core))

	w := httptest.NewRecorder()
	newPanickingRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Error.Code)

	entries := recorded.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	require.Equal(t, "/boom", entries[0].ContextMap()["route"])
}

func TestRecoveryBareRoute(t *testing.T) {
	w := httptest.NewRecorder()
	newPanickingRouter("/notices/dismiss").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notices/dismiss", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"success":false}`, w.Body.String())
}

func TestNotFoundHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.NoRoute(NotFoundHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
}
