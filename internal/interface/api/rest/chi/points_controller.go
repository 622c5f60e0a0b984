package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/application/interfaces"
	"github.com/febry-setyawan/loyalty/internal/application/params"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/interface/api/rest/header"
	"github.com/febry-setyawan/loyalty/internal/interface/api/rest/request"
	"github.com/febry-setyawan/loyalty/internal/interface/api/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PointsController struct {
	service interfaces.PointsService
}

// NewPointsController registers http.Handlers with additional options.
func NewPointsController(service interfaces.PointsService, options ChiServerOptions) {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}

	c := PointsController{
		service: service,
	}

	r.Group(func(r chi.Router) {
		for _, middleware := range options.Middlewares {
			r.Use(middleware)
		}
		r.Post(options.BaseURL+"/earn", c.EarnPoints)
		r.Post(options.BaseURL+"/spend", c.SpendPoints)
		r.Post(options.BaseURL+"/referral", c.EarnReferralPoints)
		r.Get(options.BaseURL+"/balance/{userID}", c.GetBalance)
		r.Get(options.BaseURL+"/earning-rules", c.GetEarningRules)
	})
}

// Earn points for a user action (POST /api/points/earn HTTP/1.1).
func (c *PointsController) EarnPoints(w http.ResponseWriter, r *http.Request) {
	// Check content type.
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	// Read, decode and close request body.
	defer r.Body.Close()

	var payload request.EarnPoints

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	if payload.UserID == uuid.Nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: user_id is required", errs.ErrInvalidRequest))
		return
	}

	res, err := c.service.EarnPoints(r.Context(), &params.EarnPoints{
		UserID:            payload.UserID,
		TransactionAmount: payload.TransactionAmount,
		EarningType:       payload.EarningType,
		Description:       payload.Description,
		ReferenceID:       payload.ReferenceID,
		UserTier:          payload.UserTier,
		BonusMultiplier:   payload.BonusMultiplier,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	// Encode and return. Status 200.
	if err = json.NewEncoder(w).Encode(response.NewEarnPoints(res)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Spend available points (POST /api/points/spend HTTP/1.1).
func (c *PointsController) SpendPoints(w http.ResponseWriter, r *http.Request) {
	// Check content type.
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	// Read, decode and close request body.
	defer r.Body.Close()

	var payload request.SpendPoints

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	if payload.UserID == uuid.Nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: user_id is required", errs.ErrInvalidRequest))
		return
	}

	// Check if the amount is meaningful.
	if payload.Points <= 0 {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: points must be positive", errs.ErrInvalidRequest))
		return
	}

	res, err := c.service.SpendPoints(r.Context(), &params.SpendPoints{
		UserID:      payload.UserID,
		Points:      payload.Points,
		Source:      payload.Source,
		ReferenceID: payload.ReferenceID,
		Description: payload.Description,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	// Encode and return. Status 200.
	if err = json.NewEncoder(w).Encode(response.NewSpendPoints(res)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Award referral bonus points (POST /api/points/referral HTTP/1.1).
func (c *PointsController) EarnReferralPoints(w http.ResponseWriter, r *http.Request) {
	// Check content type.
	if !header.IsApplicationJSONContentType(r) {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid content type", errs.ErrInvalidRequest))
		return
	}

	// Read, decode and close request body.
	defer r.Body.Close()

	var payload request.EarnReferralPoints

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		c.ErrorHandlerFunc(w, r, checkJSONDecodeError(err))
		return
	}

	if payload.UserID == uuid.Nil || payload.ReferredUserID == uuid.Nil {
		c.ErrorHandlerFunc(w, r,
			fmt.Errorf("%w: user_id and referred_user_id are required", errs.ErrInvalidRequest))
		return
	}

	referenceID := payload.ReferredUserID

	res, err := c.service.EarnPoints(r.Context(), &params.EarnPoints{
		UserID:      payload.UserID,
		EarningType: string(entities.REFERRAL),
		Description: fmt.Sprintf("Referral bonus for user %s", payload.ReferredUserID),
		ReferenceID: &referenceID,
	})
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	// Encode and return. Status 200.
	if err = json.NewEncoder(w).Encode(response.NewEarnPoints(res)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// Get user point balance (GET /api/points/balance/{userID} HTTP/1.1).
func (c *PointsController) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		c.ErrorHandlerFunc(w, r, fmt.Errorf("%w: invalid user id: %s", errs.ErrInvalidRequest, err))
		return
	}

	balance, err := c.service.GetBalance(r.Context(), userID)
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	// Encode and return. Status 200.
	if err = json.NewEncoder(w).Encode(response.NewGetBalance(balance)); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// List currently applicable earning rules (GET /api/points/earning-rules HTTP/1.1).
func (c *PointsController) GetEarningRules(w http.ResponseWriter, r *http.Request) {
	rules, err := c.service.GetEarningRules(r.Context())
	if err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}

	// Convert entities to handler response representation.
	res := make([]*response.GetEarningRule, len(rules))
	for i, rule := range rules {
		res[i] = response.NewGetEarningRule(rule)
	}

	// Encode them. Status 200 OK.
	if err = json.NewEncoder(w).Encode(res); err != nil {
		c.ErrorHandlerFunc(w, r, err)
		return
	}
}

// ErrorHandlerFunc handles sending of an error in the JSON format,
// writing appropriate status code and handling the failure to marshal that.
func (c *PointsController) ErrorHandlerFunc(w http.ResponseWriter, _ *http.Request, err error) {
	errJSON := errs.JSON{Error: err.Error()}
	code := http.StatusInternalServerError

	switch {
	// Status Bad Request (400).
	case errors.Is(err, errs.ErrInvalidRequest),
		errors.Is(err, errs.ErrInvalidQuantity):
		code = http.StatusBadRequest

	// Status Payment Required (402).
	case errors.Is(err, errs.ErrInsufficientBalance),
		errors.Is(err, errs.ErrInsufficientPending):
		code = http.StatusPaymentRequired

	// Status Not Found (404).
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound

	// Status Conflict (409).
	case errors.Is(err, errs.ErrDataConflict),
		errors.Is(err, errs.ErrVersionConflict),
		errors.Is(err, errs.ErrInvalidState):
		code = http.StatusConflict
	}

	w.WriteHeader(code)

	if err = json.NewEncoder(w).Encode(errJSON); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
