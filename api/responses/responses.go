package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

// PaymentInfo is the fee summary echoed on a successful create call.
type PaymentInfo struct {
	BaseAmount    int64  `json:"baseAmount"`
	AdminFee      int64  `json:"adminFee"`
	TotalAmount   int64  `json:"totalAmount"`
	PaymentMethod string `json:"paymentMethod"`
	FeeType       string `json:"feeType"`
}

// CreatePayment is the success envelope for the create-transaction endpoint.
type CreatePayment struct {
	Success     bool        `json:"success"`
	SnapToken   string      `json:"snapToken"`
	RedirectURL string      `json:"redirectUrl"`
	OrderIDs    []string    `json:"orderIds"`
	Reused      bool        `json:"reused"`
	PaymentInfo PaymentInfo `json:"paymentInfo"`
}

// Failure is the error envelope shared by the customer-facing endpoints.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WebhookAck is the notification acknowledgment body, always sent with 200.
type WebhookAck struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	OrderID      string `json:"orderId,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdatedCount *int   `json:"updatedCount,omitempty"`
}

// WriteSuccess writes the payload as-is with HTTP 200.
func WriteSuccess(w http.ResponseWriter, payload any) {
	WriteJSON(w, http.StatusOK, payload)
}

// WriteError translates a failure into the {success:false, error} envelope.
// Business-rule violations are warnings, not incidents, so only unexpected
// codes log at error level with the full diagnostic dump.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	if meta.DetailsAllowed || expectedCode(typed.Code()) {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	if logg != nil {
		if expectedCode(typed.Code()) {
			ctx = logg.WithField(ctx, "error_code", string(typed.Code()))
			logg.Warn(ctx, typed.Message())
		} else {
			dump := pkgerrors.Dump(err)
			ctx = logg.WithFields(ctx, map[string]any{
				"error":         dump.TopMessage,
				"error_code":    dump.Code,
				"error_chain":   dump.Chain,
				"pg_code":       dump.PGCode,
				"pg_detail":     dump.PGDetail,
				"pg_message":    dump.PGMessage,
				"pg_table":      dump.PGTable,
				"pg_column":     dump.PGColumn,
				"pg_constraint": dump.PGConstraint,
			})
			logg.Error(ctx, "request.error", err)
		}
	}

	WriteJSON(w, statusFor(typed.Code()), Failure{Error: msg})
}

// expectedCode marks the failures customers routinely produce: bad input,
// stale orders, scope misses. They pass their message through and are not
// treated as incidents.
func expectedCode(code pkgerrors.Code) bool {
	switch code {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeRateLimit:
		return true
	default:
		return false
	}
}

// statusFor flattens the error taxonomy onto the status contract of the
// storefront client: everything the customer can fix is 400, auth is 401,
// throttling is 429, and the rest stay on the metadata default.
func statusFor(code pkgerrors.Code) int {
	switch code {
	case pkgerrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case pkgerrors.CodeRateLimit:
		return http.StatusTooManyRequests
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeConflict,
		pkgerrors.CodeDependency:
		return http.StatusBadRequest
	default:
		return pkgerrors.MetadataFor(code).HTTPStatus
	}
}

// WriteJSON writes an arbitrary payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
