package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/npcorchestrator/pkg/apperr"
)

func TestRespondError_ClassifiedErrorMapsStatusAndCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, apperr.NotFound("release", "rel-1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(apperr.CategoryNotFound), body.Code)
}

func TestRespondError_WrappedClassifiedErrorStillUnwraps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	wrapped := errors.Join(errors.New("context"), apperr.New(apperr.CategoryConflict, "already active"))
	respondError(c, wrapped)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRespondError_UnclassifiedErrorFallsBackToInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(apperr.CategoryInternal), body.Code)
}
