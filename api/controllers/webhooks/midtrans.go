package webhooks

import (
	"net/http"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/responses"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/validators"
	midtranswebhook "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/webhooks/midtrans"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

// MidtransNotification handles POST /api/v1/webhooks/midtrans. The gateway
// retries on any non-2xx, so the endpoint acknowledges every notification it
// can read and reports the outcome in the body instead of the status code.
func MidtransNotification(svc *midtranswebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var notification midtranswebhook.Notification
		if err := validators.DecodeLenientJSONBody(r, &notification); err != nil {
			logg.Warn(logg.WithFields(r.Context(), map[string]any{"error": err.Error()}),
				"unreadable midtrans notification")
			responses.WriteJSON(w, http.StatusOK, responses.WebhookAck{
				Success: false,
				Message: "notification ignored",
			})
			return
		}

		result := svc.HandleNotification(r.Context(), &notification)
		responses.WriteJSON(w, http.StatusOK, newAck(result))
	}
}

func newAck(result *midtranswebhook.Result) responses.WebhookAck {
	ack := responses.WebhookAck{
		Success:      result.Success,
		Message:      result.Message,
		OrderID:      result.OrderID,
		UpdatedCount: result.UpdatedCount,
	}
	if result.OrderID != "" {
		ack.Status = result.Status.String()
	}
	return ack
}
