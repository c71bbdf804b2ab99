package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/velora-dev/storefront-backend/pkg/errors"
	"github.com/velora-dev/storefront-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccessStatus(rec, http.StatusCreated, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "abc", envelope.Data["id"])
}

func TestWriteErrorCodedMessagePassesThrough(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
		WithDetails(map[string]string{"cart": "empty"})
	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Code)
	assert.Equal(t, "cart is empty", envelope.Message)
	assert.NotNil(t, envelope.Details)
}

func TestWriteErrorStateConflictIsBadRequest(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec,
		pkgerrors.New(pkgerrors.CodeStateConflict, "cannot go from shipped to pending"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeStateConflict), envelope.Code)
	assert.Equal(t, "cannot go from shipped to pending", envelope.Message)
}

func TestWriteErrorBusinessConflictIsBadRequest(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec,
		pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for Linen Shirt (M/white): 1 available"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeConflict), envelope.Code)
	assert.Equal(t, "insufficient stock for Linen Shirt (M/white): 1 available", envelope.Message)
}

func TestWriteErrorDependencyIsServerError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec,
		pkgerrors.New(pkgerrors.CodeDependency, "dial tcp: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	// Infrastructure failures never leak their cause to clients.
	assert.Equal(t, "dependency unavailable", envelope.Message)
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeInternal), envelope.Code)
	assert.Equal(t, "internal server error", envelope.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestWriteErrorNotFoundMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec,
		pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "order not found", envelope.Message)
}
