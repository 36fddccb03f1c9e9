package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/rental-engine/internal/domain"
	"github.com/segyhp/rental-engine/internal/handler"
	"github.com/segyhp/rental-engine/internal/mocks"
	customError "github.com/segyhp/rental-engine/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(svc *mocks.MockRentalService) *mux.Router {
	router := mux.NewRouter()
	handler.NewRentalHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(router)
	return router
}

func sampleRental(userID int64, status domain.RentalStatus) *domain.Rental {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	rental := domain.NewRental(userID, now)
	rental.Status = status
	rental.Version = 1
	return rental
}

func TestRentalHandler_BookOperations(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		method         string
		body           string
		setupMock      func(*mocks.MockRentalService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "rent books",
			path: "/api/v1/rentals/1/rent",
			body: `{"book_ids":[10,20]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("RentBooks", mock.Anything, int64(1), []int64{10, 20}).
					Return(sampleRental(1, domain.RentalStatusRented), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "return books",
			path: "/api/v1/rentals/1/return",
			body: `{"book_ids":[10]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("ReturnBooks", mock.Anything, int64(1), []int64{10}).
					Return(sampleRental(1, domain.RentalStatusOK), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "mark overdue",
			path: "/api/v1/rentals/1/overdue",
			body: `{"book_ids":[10]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("MarkOverdue", mock.Anything, int64(1), []int64{10}).
					Return(sampleRental(1, domain.RentalStatusRentUnavailable), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "return overdue",
			path: "/api/v1/rentals/1/return-overdue",
			body: `{"book_ids":[10]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("ReturnOverdue", mock.Anything, int64(1), []int64{10}).
					Return(sampleRental(1, domain.RentalStatusRentUnavailable), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "capacity exceeded maps to conflict",
			path: "/api/v1/rentals/1/rent",
			body: `{"book_ids":[1,2,3,4,5,6]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("RentBooks", mock.Anything, int64(1), mock.Anything).
					Return(nil, customError.WrapCapacityExceeded(0, 6, 5)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   customError.ErrCodeCapacityExceeded,
		},
		{
			name: "hold maps to conflict",
			path: "/api/v1/rentals/1/rent",
			body: `{"book_ids":[1]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("RentBooks", mock.Anything, int64(1), mock.Anything).
					Return(nil, customError.WrapAlreadyOverdue(1)).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   customError.ErrCodeAlreadyOverdue,
		},
		{
			name: "no matching rental maps to not found",
			path: "/api/v1/rentals/1/return",
			body: `{"book_ids":[99]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("ReturnBooks", mock.Anything, int64(1), mock.Anything).
					Return(nil, customError.WrapNoMatchingRental(1, []int64{99})).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   customError.ErrCodeNoMatchingRental,
		},
		{
			name:           "empty book list",
			path:           "/api/v1/rentals/1/rent",
			body:           `{"book_ids":[]}`,
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:           "non-positive book id",
			path:           "/api/v1/rentals/1/rent",
			body:           `{"book_ids":[3,0]}`,
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:           "malformed body",
			path:           "/api/v1/rentals/1/rent",
			body:           `{"book_ids":`,
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name:           "zero user id",
			path:           "/api/v1/rentals/0/rent",
			body:           `{"book_ids":[1]}`,
			setupMock:      func(m *mocks.MockRentalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidRequest,
		},
		{
			name: "storage failure hides cause",
			path: "/api/v1/rentals/1/rent",
			body: `{"book_ids":[1]}`,
			setupMock: func(m *mocks.MockRentalService) {
				m.On("RentBooks", mock.Anything, int64(1), mock.Anything).
					Return(nil, customError.WrapDatabaseError(errors.New("password authentication failed"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   customError.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockRentalService()
			tt.setupMock(svc)
			router := newRouter(svc)

			req := httptest.NewRequest(http.MethodPost, tt.path, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp apiResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedStatus == http.StatusOK, resp.Success)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.NotContains(t, w.Body.String(), "password")

			svc.AssertExpectations(t)
		})
	}
}

func TestRentalHandler_RentResponseBody(t *testing.T) {
	svc := mocks.NewMockRentalService()
	rental := sampleRental(7, domain.RentalStatusRented)
	rental.RentedItems = []domain.RentedItem{{RentalID: rental.ID, BookID: 10, RentalDate: rental.CreatedAt}}
	svc.On("RentBooks", mock.Anything, int64(7), []int64{10}).Return(rental, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rentals/7/rent", bytes.NewBufferString(`{"book_ids":[10]}`))
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var got struct {
		ID          string `json:"id"`
		UserID      int64  `json:"user_id"`
		Status      string `json:"status"`
		RentedItems []struct {
			BookID int64 `json:"book_id"`
		} `json:"rented_items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, rental.ID.String(), got.ID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "RENTED", got.Status)
	require.Len(t, got.RentedItems, 1)
	assert.Equal(t, int64(10), got.RentedItems[0].BookID)
}

func TestRentalHandler_ReleaseAndPay(t *testing.T) {
	t.Run("release overdue hold", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("ReleaseOverdueHold", mock.Anything, int64(3)).Return(sampleRental(3, domain.RentalStatusOK), nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rentals/3/release-overdue", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("pay late fee", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("PayLateFee", mock.Anything, int64(3)).Return(&domain.LateFeePayment{
			Rental:    sampleRental(3, domain.RentalStatusRentUnavailable),
			Amount:    decimal.NewFromInt(30),
			Attempted: true,
		}, nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rentals/3/late-fee/payment", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, string(resp.Data), `"attempted":true`)
	})

	t.Run("payment rejected", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("PayLateFee", mock.Anything, int64(3)).Return(nil, customError.WrapPaymentRejected(3, errors.New("insufficient points")))

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rentals/3/late-fee/payment", nil))

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestRentalHandler_Queries(t *testing.T) {
	id := uuid.New()

	t.Run("get rental", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("GetRental", mock.Anything, id).Return(sampleRental(1, domain.RentalStatusOK), nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rentals/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get missing rental", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("GetRental", mock.Anything, id).Return(nil, customError.WrapRentalNotFound(id.String()))

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rentals/"+id.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("get rental by user", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("GetRentalByUser", mock.Anything, int64(5)).Return(sampleRental(5, domain.RentalStatusOK), nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/5/rental", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("list rentals clamps size", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("ListRentals", mock.Anything, domain.PageRequest{Page: 2, Size: domain.MaxPageSize}).
			Return(&domain.Page{Items: []*domain.Rental{}, Page: 2, Size: domain.MaxPageSize}, nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rentals?page=2&size=500", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("list rentals bad page", func(t *testing.T) {
		svc := mocks.NewMockRentalService()

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/rentals?page=abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete rental", func(t *testing.T) {
		svc := mocks.NewMockRentalService()
		svc.On("DeleteRental", mock.Anything, id).Return(nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/rentals/"+id.String(), nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})
}
