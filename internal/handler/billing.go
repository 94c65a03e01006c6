package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/repository"
	"github.com/fleetcab/billing-engine/internal/service"
	customError "github.com/fleetcab/billing-engine/pkg/errors"
	"github.com/fleetcab/billing-engine/pkg/response"
)

type BillingHandler struct {
	schedule        *service.ScheduleService
	posting         *service.PostingService
	obligationRepo  repository.ObligationRepository
	installmentRepo repository.InstallmentRepository
	validator       *validator.Validate
	log             *zap.Logger
}

func NewBillingHandler(
	schedule *service.ScheduleService,
	posting *service.PostingService,
	obligationRepo repository.ObligationRepository,
	installmentRepo repository.InstallmentRepository,
	log *zap.Logger,
) *BillingHandler {
	v := validator.New()
	registerDecimalRules(v)

	return &BillingHandler{
		schedule:        schedule,
		posting:         posting,
		obligationRepo:  obligationRepo,
		installmentRepo: installmentRepo,
		validator:       v,
		log:             log,
	}
}

func registerDecimalRules(v *validator.Validate) {
	_ = v.RegisterValidation("decimal_gt", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		return err == nil && d.GreaterThan(limit)
	})
	_ = v.RegisterValidation("decimal_gte", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		limit, err := decimal.NewFromString(fl.Param())
		return err == nil && d.GreaterThanOrEqual(limit)
	})
}

// CreateObligation handles POST /api/v1/obligations
func (h *BillingHandler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	obligation, schedule, err := h.schedule.GenerateSchedule(r.Context(), &request)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.CreateObligationResponse{
		Obligation: obligation,
		Schedule:   schedule,
	})
}

// GetObligation handles GET /api/v1/obligations/{obligationId}
func (h *BillingHandler) GetObligation(w http.ResponseWriter, r *http.Request) {
	obligationID := mux.Vars(r)["obligationId"]

	obligation, err := h.obligationRepo.GetByObligationID(r.Context(), obligationID)
	if err != nil {
		h.writeBusinessError(w, customError.WrapObligationNotFound(obligationID))
		return
	}

	response.Success(w, obligation)
}

// GetSchedule handles GET /api/v1/obligations/{obligationId}/schedule
func (h *BillingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	obligationID := mux.Vars(r)["obligationId"]

	if _, err := h.obligationRepo.GetByObligationID(r.Context(), obligationID); err != nil {
		h.writeBusinessError(w, customError.WrapObligationNotFound(obligationID))
		return
	}

	schedule, err := h.installmentRepo.ListByObligation(r.Context(), obligationID)
	if err != nil {
		response.InternalServerError(w, "Failed to load schedule", err)
		return
	}

	response.Success(w, &domain.ScheduleResponse{
		ObligationID: obligationID,
		Schedule:     schedule,
	})
}

// PostInstallments handles POST /api/v1/installments/post. A batch with
// item failures is still a 200: the body enumerates every item's outcome.
func (h *BillingHandler) PostInstallments(w http.ResponseWriter, r *http.Request) {
	var request domain.PostInstallmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.posting.PostInstallments(r.Context(), &request)
	if err != nil {
		h.writeBusinessError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *BillingHandler) writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *customError.BusinessError
	if !errors.As(err, &businessErr) {
		h.log.Error("unexpected error", zap.Error(err))
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	switch businessErr.Code {
	case customError.ErrCodeObligationNotFound, customError.ErrCodeInstallmentNotFound:
		response.Error(w, http.StatusNotFound, businessErr.Message, businessErr.Code, businessErr.Err)
	case customError.ErrCodeInvalidPrincipal,
		customError.ErrCodeStartWeekNotSunday,
		customError.ErrCodeInterestRateRange,
		customError.ErrCodeRepairInterest,
		customError.ErrCodeMissingMedallion,
		customError.ErrCodeInvalidSelector:
		response.Error(w, http.StatusBadRequest, businessErr.Message, businessErr.Code, businessErr.Err)
	case customError.ErrCodePostingInProgress, customError.ErrCodeDuplicatePosting, customError.ErrCodeInvalidTransition:
		response.Error(w, http.StatusConflict, businessErr.Message, businessErr.Code, businessErr.Err)
	default:
		h.log.Error("request failed", zap.String("code", businessErr.Code), zap.Error(businessErr))
		response.Error(w, http.StatusInternalServerError, businessErr.Message, businessErr.Code, businessErr.Err)
	}
}
