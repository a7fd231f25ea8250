package responses

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "responses-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) Failure {
	t.Helper()
	var body Failure
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, CreatePayment{
		Success:   true,
		SnapToken: "snap-1",
		OrderIDs:  []string{"a"},
		PaymentInfo: PaymentInfo{
			BaseAmount:    500000,
			AdminFee:      3500,
			TotalAmount:   503500,
			PaymentMethod: "qris",
			FeeType:       "0.7%",
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "snap-1", body["snapToken"])
	info, ok := body["paymentInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0.7%", info["feeType"])
}

func TestWriteErrorBusinessRulePassesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "Pesanan sudah dibayar")
	WriteError(context.Background(), testLogger(), rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeFailure(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Pesanan sudah dibayar", body.Error)
}

func TestWriteErrorStatuses(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeValidation, http.StatusBadRequest},
		{pkgerrors.CodeNotFound, http.StatusBadRequest},
		{pkgerrors.CodeForbidden, http.StatusBadRequest},
		{pkgerrors.CodeStateConflict, http.StatusBadRequest},
		{pkgerrors.CodeDependency, http.StatusBadRequest},
		{pkgerrors.CodeUnauthorized, http.StatusUnauthorized},
		{pkgerrors.CodeRateLimit, http.StatusTooManyRequests},
		{pkgerrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), testLogger(), rec, pkgerrors.New(tc.code, "boom"))
		assert.Equal(t, tc.status, rec.Code, "code %s", tc.code)
	}
}

func TestWriteErrorDependencyPreservesGatewayText(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeDependency, "midtrans create transaction failed (402): Payment channel not activated")
	WriteError(context.Background(), testLogger(), rec, err)

	body := decodeFailure(t, rec)
	assert.Contains(t, body.Error, "Payment channel not activated")
}

func TestWriteErrorInternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInternal, "pq: duplicate key value violates unique constraint")
	WriteError(context.Background(), testLogger(), rec, err)

	body := decodeFailure(t, rec)
	assert.Equal(t, "internal server error", body.Error)
}

func TestWriteErrorUntypedError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), testLogger(), rec, io.ErrUnexpectedEOF)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeFailure(t, rec)
	assert.Equal(t, "internal server error", body.Error)
}

func TestWriteErrorNilError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
