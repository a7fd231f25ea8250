package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/orders"
	paymentsvc "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments/txid"
	midtranswebhook "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/webhooks/midtrans"
	pkgauth "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/auth"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/midtrans"
)

const routerServerKey = "SB-Mid-server-router-test"

var routerNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersRepo struct {
	orders []models.Order
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Order, error) {
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

func (s *stubOrdersRepo) FindByTransactionRef(_ context.Context, ref string) ([]models.Order, error) {
	var found []models.Order
	for _, order := range s.orders {
		if order.TransactionID != nil && *order.TransactionID == ref {
			found = append(found, order)
		}
	}
	return found, nil
}

func (s *stubOrdersRepo) ApplyPaymentFields(_ context.Context, ids []uuid.UUID, prevToken *string, fields orders.PaymentFields) (int64, error) {
	var applied int64
	for i := range s.orders {
		for _, id := range ids {
			if s.orders[i].ID != id {
				continue
			}
			if prevToken == nil && s.orders[i].SnapToken != nil {
				continue
			}
			token := fields.SnapToken
			s.orders[i].SnapToken = &token
			applied++
		}
	}
	return applied, nil
}

func (s *stubOrdersRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == from {
			s.orders[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

type stubGateway struct{}

func (stubGateway) CreateTransaction(context.Context, midtrans.TransactionRequest) (*midtrans.SnapSession, error) {
	return &midtrans.SnapSession{Token: "snap-router-1", RedirectURL: "https://example.test/pay"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer"},
		Payments: config.PaymentsConfig{
			TransactionPrefix: "CATERING",
			QRISThreshold:     628000,
			QRISFeePercent:    "0.7",
			BankTransferFee:   4400,
			SnowflakeNode:     1,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, repo *stubOrdersRepo) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	policy, err := paymentsvc.NewFeePolicy(cfg.Payments)
	if err != nil {
		t.Fatalf("fee policy: %v", err)
	}
	txids, err := txid.NewBuilder(cfg.Payments.TransactionPrefix, cfg.Payments.SnowflakeNode)
	if err != nil {
		t.Fatalf("txid builder: %v", err)
	}
	createService, err := paymentsvc.NewCreateService(repo, stubGateway{}, policy, txids, clock.Fixed(routerNow), logg, nil)
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	webhookService, err := midtranswebhook.NewService(midtranswebhook.ServiceParams{
		OrderRepo: repo,
		ServerKey: routerServerKey,
		TxIDs:     txids,
		Logger:    logg,
	})
	if err != nil {
		t.Fatalf("webhook service: %v", err)
	}

	return NewRouter(cfg, logg, stubPinger{}, nil, nil, createService, webhookService)
}

func guestOrder(total int64) models.Order {
	name := "Tamu Satu"
	return models.Order{
		ID:             uuid.New(),
		GuestName:      &name,
		RecipientName:  "Penerima",
		RecipientPhone: "+628222222222",
		Status:         enums.OrderStatusPending,
		TotalAmount:    total,
		DeliveryDate:   routerNow.AddDate(0, 0, 2),
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, testConfig(), &stubOrdersRepo{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(t, testConfig(), &stubOrdersRepo{})
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestCreateTransactionGuestFlow(t *testing.T) {
	order := guestOrder(500000)
	repo := &stubOrdersRepo{orders: []models.Order{order}}
	router := newTestRouter(t, testConfig(), repo)

	body, _ := json.Marshal(map[string]any{"orderId": order.ID.String(), "isGuest": true})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest create got %d: %s", resp.Code, resp.Body.String())
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["snapToken"] != "snap-router-1" {
		t.Fatalf("expected snap token in response got %v", payload["snapToken"])
	}
}

func TestCreateTransactionRejectsInvalidBearer(t *testing.T) {
	router := newTestRouter(t, testConfig(), &stubOrdersRepo{})

	body, _ := json.Marshal(map[string]any{"orderId": uuid.NewString()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/transactions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token got %d", resp.Code)
	}
}

func TestCreateTransactionAuthenticatedOwner(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()
	order := guestOrder(700000)
	order.UserID = &userID
	repo := &stubOrdersRepo{orders: []models.Order{order}}
	router := newTestRouter(t, cfg, repo)

	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), userID, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"orderId": order.ID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/transactions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner create got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	orderID := uuid.New()
	ref := fmt.Sprintf("CATERING-%s", orderID)
	repo := &stubOrdersRepo{orders: []models.Order{{
		ID:            orderID,
		Status:        enums.OrderStatusPending,
		TransactionID: &ref,
	}}}
	router := newTestRouter(t, testConfig(), repo)

	payload := map[string]any{
		"order_id":           ref,
		"status_code":        "200",
		"gross_amount":       "503500.00",
		"signature_key":      midtrans.Signature(routerServerKey, ref, "200", "503500.00"),
		"transaction_status": "settlement",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for webhook got %d", resp.Code)
	}
	if repo.orders[0].Status != enums.OrderStatusPaid {
		t.Fatalf("expected order marked paid got %s", repo.orders[0].Status)
	}

	garbage := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader("{nope"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, garbage)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 even for unreadable webhook got %d", resp.Code)
	}
}
