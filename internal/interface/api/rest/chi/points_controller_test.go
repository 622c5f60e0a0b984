package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/febry-setyawan/loyalty/internal/application/interfaces"
	"github.com/febry-setyawan/loyalty/internal/application/params"
	"github.com/febry-setyawan/loyalty/internal/domain/entities"
	"github.com/febry-setyawan/loyalty/internal/interface/api/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPointsService backs handlers with canned ledger behavior: a
// fixed award of 5 points, one spendable balance of 100.
type mockPointsService struct {
	earnErr  error
	spendErr error
}

var _ interfaces.PointsService = (*mockPointsService)(nil)

func (m *mockPointsService) EarnPoints(_ context.Context, p *params.EarnPoints) (*params.EarnPointsResult, error) {
	if m.earnErr != nil {
		return nil, m.earnErr
	}
	if _, err := entities.ParseEarningType(p.EarningType); err != nil {
		return nil, err
	}
	return &params.EarnPointsResult{
		TransactionID: uuid.New(),
		UserID:        p.UserID,
		PointsEarned:  5,
		NewBalance:    5,
		Message:       "points earned successfully",
	}, nil
}

func (m *mockPointsService) SpendPoints(_ context.Context, p *params.SpendPoints) (*params.SpendPointsResult, error) {
	if m.spendErr != nil {
		return nil, m.spendErr
	}
	if p.Points > 100 {
		return nil, fmt.Errorf("%w: have 100, want to spend %d",
			errs.ErrInsufficientBalance, p.Points)
	}
	return &params.SpendPointsResult{
		TransactionID: uuid.New(),
		UserID:        p.UserID,
		PointsSpent:   p.Points,
		NewBalance:    100 - p.Points,
		Message:       "points spent successfully",
	}, nil
}

func (m *mockPointsService) GetBalance(_ context.Context, userID uuid.UUID) (*entities.PointBalance, error) {
	balance, err := entities.NewPointBalance(userID)
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (m *mockPointsService) GetEarningRules(context.Context) ([]*entities.EarningRule, error) {
	return []*entities.EarningRule{}, nil
}

func newTestRouter(service interfaces.PointsService) *chi.Mux {
	router := chi.NewRouter()
	NewPointsController(service, ChiServerOptions{
		BaseURL:    "/api/points",
		BaseRouter: router,
	})
	return router
}

func TestEarnPointsHandler(t *testing.T) {
	userID := uuid.New()

	type want struct {
		statusCode int
		response   string
	}

	tests := []struct {
		name        string
		contentType string
		payload     io.Reader
		service     *mockPointsService
		want        want
		wantErr     bool
	}{
		{
			name:        "OK",
			contentType: "application/json",
			payload: strings.NewReader(fmt.Sprintf(
				`{"user_id":%q,"transaction_amount":5000,"earning_type":"PURCHASE"}`, userID)),
			service: &mockPointsService{},
			want: want{
				statusCode: http.StatusOK,
			},
		},
		{
			name:        "invalid content type",
			contentType: "text/plain",
			payload:     strings.NewReader(""),
			service:     &mockPointsService{},
			want: want{
				statusCode: http.StatusBadRequest,
				response:   fmt.Sprintf("%s: invalid content type", errs.ErrInvalidRequest),
			},
			wantErr: true,
		},
		{
			name:        "empty body",
			contentType: "application/json",
			payload:     strings.NewReader(""),
			service:     &mockPointsService{},
			want: want{
				statusCode: http.StatusBadRequest,
				response:   fmt.Sprintf("%s: empty body", errs.ErrInvalidRequest),
			},
			wantErr: true,
		},
		{
			name:        "missing user id",
			contentType: "application/json",
			payload:     strings.NewReader(`{"transaction_amount":5000,"earning_type":"PURCHASE"}`),
			service:     &mockPointsService{},
			want: want{
				statusCode: http.StatusBadRequest,
				response:   fmt.Sprintf("%s: user_id is required", errs.ErrInvalidRequest),
			},
			wantErr: true,
		},
		{
			name:        "invalid data type: earning type is number",
			contentType: "application/json",
			payload: strings.NewReader(fmt.Sprintf(
				`{"user_id":%q,"transaction_amount":5000,"earning_type":123}`, userID)),
			service: &mockPointsService{},
			want: want{
				statusCode: http.StatusBadRequest,
				response: fmt.Sprintf("%s: earning_type must be of type string, got number",
					errs.ErrInvalidRequest),
			},
			wantErr: true,
		},
		{
			name:        "unknown earning type",
			contentType: "application/json",
			payload: strings.NewReader(fmt.Sprintf(
				`{"user_id":%q,"transaction_amount":5000,"earning_type":"GAMBLING"}`, userID)),
			service: &mockPointsService{},
			want: want{
				statusCode: http.StatusBadRequest,
				response:   fmt.Sprintf(`%s: invalid earning type: "GAMBLING"`, errs.ErrInvalidRequest),
			},
			wantErr: true,
		},
		{
			name:        "version conflict maps to 409",
			contentType: "application/json",
			payload: strings.NewReader(fmt.Sprintf(
				`{"user_id":%q,"transaction_amount":5000,"earning_type":"PURCHASE"}`, userID)),
			service: &mockPointsService{earnErr: errs.ErrVersionConflict},
			want: want{
				statusCode: http.StatusConflict,
				response:   errs.ErrVersionConflict.Error(),
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/api/points/earn", tt.payload)
			r.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			newTestRouter(tt.service).ServeHTTP(w, r)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.want.statusCode, res.StatusCode, "status mismatch")

			if tt.wantErr {
				errorResponse := new(errs.JSON)
				require.NoError(t, json.NewDecoder(res.Body).Decode(errorResponse))
				if tt.want.response != "" {
					assert.Equal(t, tt.want.response, errorResponse.Error, "error message mismatch")
				}
				return
			}

			payload := new(response.EarnPoints)
			require.NoError(t, json.NewDecoder(res.Body).Decode(payload))
			assert.Equal(t, userID, payload.UserID)
			assert.Equal(t, int64(5), payload.PointsEarned)
			assert.Equal(t, int64(5), payload.NewBalance)
		})
	}
}

func TestSpendPointsHandler(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		payload    string
		statusCode int
	}{
		{
			name:       "OK",
			payload:    fmt.Sprintf(`{"user_id":%q,"points":30,"source":"REDEMPTION"}`, userID),
			statusCode: http.StatusOK,
		},
		{
			name:       "insufficient balance maps to 402",
			payload:    fmt.Sprintf(`{"user_id":%q,"points":101,"source":"REDEMPTION"}`, userID),
			statusCode: http.StatusPaymentRequired,
		},
		{
			name:       "non-positive points",
			payload:    fmt.Sprintf(`{"user_id":%q,"points":0,"source":"REDEMPTION"}`, userID),
			statusCode: http.StatusBadRequest,
		},
		{
			name:       "missing user id",
			payload:    `{"points":30,"source":"REDEMPTION"}`,
			statusCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/api/points/spend", strings.NewReader(tt.payload))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

			res := w.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.statusCode, res.StatusCode, "status mismatch")

			if tt.statusCode == http.StatusOK {
				payload := new(response.SpendPoints)
				require.NoError(t, json.NewDecoder(res.Body).Decode(payload))
				assert.Equal(t, int64(30), payload.PointsSpent)
				assert.Equal(t, int64(70), payload.NewBalance)
			}
		})
	}
}

func TestEarnReferralPointsHandler(t *testing.T) {
	userID, referredID := uuid.New(), uuid.New()

	t.Run("OK", func(t *testing.T) {
		body := fmt.Sprintf(`{"user_id":%q,"referred_user_id":%q}`, userID, referredID)

		r := httptest.NewRequest(http.MethodPost, "/api/points/referral", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

		res := w.Result()
		defer res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)

		payload := new(response.EarnPoints)
		require.NoError(t, json.NewDecoder(res.Body).Decode(payload))
		assert.Equal(t, userID, payload.UserID)
	})

	t.Run("missing referred user", func(t *testing.T) {
		body := fmt.Sprintf(`{"user_id":%q}`, userID)

		r := httptest.NewRequest(http.MethodPost, "/api/points/referral", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

		res := w.Result()
		defer res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestGetBalanceHandler(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		userID := uuid.New()

		r := httptest.NewRequest(http.MethodGet, "/api/points/balance/"+userID.String(), http.NoBody)
		w := httptest.NewRecorder()

		newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

		res := w.Result()
		defer res.Body.Close()

		require.Equal(t, http.StatusOK, res.StatusCode)

		payload := new(response.GetBalance)
		require.NoError(t, json.NewDecoder(res.Body).Decode(payload))
		assert.Equal(t, userID, payload.UserID)
		assert.Equal(t, int64(0), payload.TotalPoints)
	})

	t.Run("malformed user id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/points/balance/not-a-uuid", http.NoBody)
		w := httptest.NewRecorder()

		newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

		res := w.Result()
		defer res.Body.Close()

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestGetEarningRulesHandler(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/points/earning-rules", http.NoBody)
	w := httptest.NewRecorder()

	newTestRouter(&mockPointsService{}).ServeHTTP(w, r)

	res := w.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var rules []*response.GetEarningRule
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rules))
	assert.Empty(t, rules)
}
