package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/service"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
	"github.com/fleetcab/billing-engine/pkg/response"
)

// LedgerHandler receives the ledger's payment-application callbacks on the
// internal hook. It is not part of the public API surface.
type LedgerHandler struct {
	lifecycle *service.LifecycleService
	validator *validator.Validate
	log       *zap.Logger
}

func NewLedgerHandler(lifecycle *service.LifecycleService, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		lifecycle: lifecycle,
		validator: validator.New(),
		log:       log,
	}
}

// HandleEvent handles POST /internal/ledger/events
func (h *LedgerHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.LedgerEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.BadRequest(w, "Invalid event body", err)
		return
	}

	if err := h.validator.Struct(&event); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	var err error
	switch event.Type {
	case domain.LedgerEventInstallmentPaid:
		err = h.lifecycle.MarkPaid(r.Context(), event.InstallmentID)
	case domain.LedgerEventInstallmentReopened:
		err = h.lifecycle.MarkReopened(r.Context(), event.InstallmentID)
	}

	if err != nil {
		var businessErr *customError.BusinessError
		if errors.As(err, &businessErr) {
			switch businessErr.Code {
			case customError.ErrCodeInstallmentNotFound:
				response.NotFound(w, businessErr.Message)
				return
			case customError.ErrCodeInvalidTransition:
				response.Conflict(w, businessErr.Message, businessErr.Err)
				return
			}
		}
		h.log.Error("ledger event failed",
			zap.String("type", event.Type),
			zap.String("installment_id", event.InstallmentID),
			zap.Error(err),
		)
		response.InternalServerError(w, "Failed to apply ledger event", err)
		return
	}

	response.Success(w, map[string]string{
		"type":           event.Type,
		"installment_id": event.InstallmentID,
	})
}
