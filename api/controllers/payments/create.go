package payments

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/middleware"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/responses"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/validators"
	paymentsvc "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

type createRequest struct {
	OrderID       string   `json:"orderId,omitempty" validate:"omitempty,uuid"`
	OrderIDs      []string `json:"orderIds,omitempty" validate:"omitempty,dive,uuid"`
	IsGuest       bool     `json:"isGuest,omitempty"`
	ForceNewToken bool     `json:"forceNewToken,omitempty"`
}

// resolveIDs flattens orderId/orderIds into one id list. Exactly one of the
// two must produce a non-empty list.
func (req createRequest) resolveIDs() ([]uuid.UUID, error) {
	if req.OrderID != "" && len(req.OrderIDs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use either orderId or orderIds, not both")
	}

	raw := req.OrderIDs
	if req.OrderID != "" {
		raw = []string{req.OrderID}
	}
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId or orderIds is required")
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id "+value)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateTransaction handles POST /api/v1/payments/transactions.
func CreateTransaction(svc *paymentsvc.CreateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := payload.resolveIDs()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := paymentsvc.Scope{IsGuest: payload.IsGuest}
		if !payload.IsGuest {
			scope.UserID = middleware.UserIDFromContext(r.Context())
			if scope.UserID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
		}

		result, err := svc.CreateTransaction(r.Context(), paymentsvc.CreateParams{
			OrderIDs:      ids,
			Scope:         scope,
			ForceNewToken: payload.ForceNewToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCreateResponse(result))
	}
}

func newCreateResponse(result *paymentsvc.CreateResult) responses.CreatePayment {
	ids := make([]string, 0, len(result.OrderIDs))
	for _, id := range result.OrderIDs {
		ids = append(ids, id.String())
	}
	return responses.CreatePayment{
		Success:     true,
		SnapToken:   result.SnapToken,
		RedirectURL: result.RedirectURL,
		OrderIDs:    ids,
		Reused:      result.Reused,
		PaymentInfo: responses.PaymentInfo{
			BaseAmount:    result.Info.BaseAmount,
			AdminFee:      result.Info.AdminFee,
			TotalAmount:   result.Info.TotalAmount,
			PaymentMethod: result.Info.Method.String(),
			FeeType:       result.Info.FeeType,
		},
	}
}
