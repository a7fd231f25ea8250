package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/middleware"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/orders"
	paymentsvc "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments/txid"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/midtrans"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "payments-controller-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

type stubOrderRepo struct {
	orders []models.Order
}

func (s *stubOrderRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Order, error) {
	var found []models.Order
	for _, id := range ids {
		for _, order := range s.orders {
			if order.ID == id {
				found = append(found, order)
			}
		}
	}
	return found, nil
}

func (s *stubOrderRepo) FindByTransactionRef(_ context.Context, ref string) ([]models.Order, error) {
	var found []models.Order
	for _, order := range s.orders {
		if order.TransactionID != nil && *order.TransactionID == ref {
			found = append(found, order)
		}
	}
	return found, nil
}

func (s *stubOrderRepo) ApplyPaymentFields(_ context.Context, ids []uuid.UUID, prevToken *string, fields orders.PaymentFields) (int64, error) {
	var applied int64
	for i := range s.orders {
		order := &s.orders[i]
		for _, id := range ids {
			if order.ID != id {
				continue
			}
			if prevToken == nil && order.SnapToken != nil {
				continue
			}
			if prevToken != nil && (order.SnapToken == nil || *order.SnapToken != *prevToken) {
				continue
			}
			token := fields.SnapToken
			ref := fields.TransactionID
			url := fields.PaymentURL
			method := fields.Method
			order.SnapToken = &token
			order.TransactionID = &ref
			order.PaymentURL = &url
			order.PaymentMethod = &method
			order.AdminFee = fields.AdminFee
			applied++
		}
	}
	return applied, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == from {
			s.orders[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

type stubGateway struct {
	session *midtrans.SnapSession
}

func (s *stubGateway) CreateTransaction(context.Context, midtrans.TransactionRequest) (*midtrans.SnapSession, error) {
	return s.session, nil
}

func newTestService(t *testing.T, repo *stubOrderRepo) *paymentsvc.CreateService {
	t.Helper()

	policy, err := paymentsvc.NewFeePolicy(config.PaymentsConfig{
		TransactionPrefix: "CATERING",
		QRISThreshold:     628000,
		QRISFeePercent:    "0.7",
		BankTransferFee:   4400,
		SnowflakeNode:     1,
	})
	require.NoError(t, err)

	txids, err := txid.NewBuilder("CATERING", 1)
	require.NoError(t, err)

	gateway := &stubGateway{session: &midtrans.SnapSession{
		Token:       "snap-token-1",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token-1",
	}}

	svc, err := paymentsvc.NewCreateService(repo, gateway, policy, txids, clock.Fixed(testNow), testLogger(), nil)
	require.NoError(t, err)
	return svc
}

func guestOrder(total int64) models.Order {
	name := "Tamu Satu"
	phone := "+628111111111"
	return models.Order{
		ID:             uuid.New(),
		GuestName:      &name,
		GuestPhone:     &phone,
		RecipientName:  "Penerima",
		RecipientPhone: "+628222222222",
		Status:         enums.OrderStatusPending,
		TotalAmount:    total,
		DeliveryDate:   testNow.AddDate(0, 0, 2),
	}
}

func postCreate(t *testing.T, handler http.HandlerFunc, userID uuid.UUID, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCreateTransactionGuestSingleOrder(t *testing.T) {
	order := guestOrder(500000)
	repo := &stubOrderRepo{orders: []models.Order{order}}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, uuid.Nil, map[string]any{
		"orderId": order.ID.String(),
		"isGuest": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "snap-token-1", body["snapToken"])
	assert.Equal(t, []any{order.ID.String()}, body["orderIds"])
	assert.Equal(t, false, body["reused"])

	info, ok := body["paymentInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(500000), info["baseAmount"])
	assert.Equal(t, float64(3500), info["adminFee"])
	assert.Equal(t, float64(503500), info["totalAmount"])
	assert.Equal(t, "qris", info["paymentMethod"])
	assert.Equal(t, "0.7%", info["feeType"])
}

func TestCreateTransactionAuthenticatedOwner(t *testing.T) {
	userID := uuid.New()
	order := guestOrder(700000)
	order.UserID = &userID
	repo := &stubOrderRepo{orders: []models.Order{order}}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, userID, map[string]any{
		"orderIds": []string{order.ID.String()},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	info, ok := body["paymentInfo"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4400), info["adminFee"])
	assert.Equal(t, "bank_transfer", info["paymentMethod"])
	assert.Equal(t, "Rp4.400", info["feeType"])
}

func TestCreateTransactionRequiresCredentialsForNonGuest(t *testing.T) {
	repo := &stubOrderRepo{}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, uuid.Nil, map[string]any{
		"orderId": uuid.New().String(),
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}

func TestCreateTransactionRejectsBothIDForms(t *testing.T) {
	repo := &stubOrderRepo{}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, uuid.Nil, map[string]any{
		"orderId":  uuid.New().String(),
		"orderIds": []string{uuid.New().String()},
		"isGuest":  true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionRejectsEmptyBody(t *testing.T) {
	repo := &stubOrderRepo{}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, uuid.Nil, map[string]any{"isGuest": true})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionRejectsMalformedID(t *testing.T) {
	repo := &stubOrderRepo{}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	body, err := json.Marshal(map[string]any{"orderId": "not-a-uuid", "isGuest": true})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransactionUnknownOrder(t *testing.T) {
	repo := &stubOrderRepo{}
	handler := CreateTransaction(newTestService(t, repo), testLogger())

	rec := postCreate(t, handler, uuid.Nil, map[string]any{
		"orderId": uuid.New().String(),
		"isGuest": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Pesanan tidak ditemukan", body["error"])
}
