package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/segyhp/rental-engine/internal/domain"
	customError "github.com/segyhp/rental-engine/pkg/errors"
	"github.com/segyhp/rental-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RentalService is the part of the service layer the HTTP API drives
type RentalService interface {
	RentBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error)
	ReturnBooks(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error)
	MarkOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error)
	ReturnOverdue(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error)
	ReleaseOverdueHold(ctx context.Context, userID int64) (*domain.Rental, error)
	PayLateFee(ctx context.Context, userID int64) (*domain.LateFeePayment, error)
	GetRental(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	GetRentalByUser(ctx context.Context, userID int64) (*domain.Rental, error)
	ListRentals(ctx context.Context, page domain.PageRequest) (*domain.Page, error)
	DeleteRental(ctx context.Context, id uuid.UUID) error
}

// BookIDsRequest is the body of every book-level rental operation
type BookIDsRequest struct {
	BookIDs []int64 `json:"book_ids" validate:"required,min=1,dive,gt=0"`
}

type RentalHandler struct {
	service   RentalService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewRentalHandler(service RentalService, logger *slog.Logger) *RentalHandler {
	return &RentalHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the rental API on router
func (h *RentalHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/rentals", h.ListRentals).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9a-fA-F-]{36}}", h.GetRental).Methods(http.MethodGet)
	api.HandleFunc("/rentals/{id:[0-9a-fA-F-]{36}}", h.DeleteRental).Methods(http.MethodDelete)
	api.HandleFunc("/users/{userId:[0-9]+}/rental", h.GetRentalByUser).Methods(http.MethodGet)

	api.HandleFunc("/rentals/{userId:[0-9]+}/rent", h.RentBooks).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{userId:[0-9]+}/return", h.ReturnBooks).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{userId:[0-9]+}/overdue", h.MarkOverdue).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{userId:[0-9]+}/return-overdue", h.ReturnOverdue).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{userId:[0-9]+}/release-overdue", h.ReleaseOverdueHold).Methods(http.MethodPost)
	api.HandleFunc("/rentals/{userId:[0-9]+}/late-fee/payment", h.PayLateFee).Methods(http.MethodPost)
}

// RentBooks handles POST /api/v1/rentals/{userId}/rent
func (h *RentalHandler) RentBooks(w http.ResponseWriter, r *http.Request) {
	h.bookOperation(w, r, "rent books", h.service.RentBooks)
}

// ReturnBooks handles POST /api/v1/rentals/{userId}/return
func (h *RentalHandler) ReturnBooks(w http.ResponseWriter, r *http.Request) {
	h.bookOperation(w, r, "return books", h.service.ReturnBooks)
}

// MarkOverdue handles POST /api/v1/rentals/{userId}/overdue
func (h *RentalHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	h.bookOperation(w, r, "mark overdue", h.service.MarkOverdue)
}

// ReturnOverdue handles POST /api/v1/rentals/{userId}/return-overdue
func (h *RentalHandler) ReturnOverdue(w http.ResponseWriter, r *http.Request) {
	h.bookOperation(w, r, "return overdue books", h.service.ReturnOverdue)
}

// ReleaseOverdueHold handles POST /api/v1/rentals/{userId}/release-overdue
func (h *RentalHandler) ReleaseOverdueHold(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rental, err := h.service.ReleaseOverdueHold(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "release overdue hold", err)
		return
	}

	response.Success(w, rental)
}

// PayLateFee handles POST /api/v1/rentals/{userId}/late-fee/payment
func (h *RentalHandler) PayLateFee(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	payment, err := h.service.PayLateFee(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "pay late fee", err)
		return
	}

	response.Success(w, payment)
}

// GetRental handles GET /api/v1/rentals/{id}
func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid rental ID", customError.WrapInvalidRequest(err.Error()))
		return
	}

	rental, err := h.service.GetRental(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get rental", err)
		return
	}

	response.Success(w, rental)
}

// GetRentalByUser handles GET /api/v1/users/{userId}/rental
func (h *RentalHandler) GetRentalByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	rental, err := h.service.GetRentalByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "get rental by user", err)
		return
	}

	response.Success(w, rental)
}

// ListRentals handles GET /api/v1/rentals?page=&size=
func (h *RentalHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		response.BadRequest(w, "Invalid page", customError.WrapInvalidRequest("page must be an integer"))
		return
	}
	size, err := queryInt(r, "size")
	if err != nil {
		response.BadRequest(w, "Invalid size", customError.WrapInvalidRequest("size must be an integer"))
		return
	}

	result, err := h.service.ListRentals(r.Context(), domain.PageRequest{Page: page, Size: size}.Normalize())
	if err != nil {
		h.fail(w, r, "list rentals", err)
		return
	}

	response.Success(w, result)
}

// DeleteRental handles DELETE /api/v1/rentals/{id}
func (h *RentalHandler) DeleteRental(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid rental ID", customError.WrapInvalidRequest(err.Error()))
		return
	}

	if err = h.service.DeleteRental(r.Context(), id); err != nil {
		h.fail(w, r, "delete rental", err)
		return
	}

	response.NoContent(w)
}

type bookOperationFunc func(ctx context.Context, userID int64, bookIDs []int64) (*domain.Rental, error)

func (h *RentalHandler) bookOperation(w http.ResponseWriter, r *http.Request, op string, fn bookOperationFunc) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req BookIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", customError.WrapInvalidRequest(err.Error()))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", customError.WrapInvalidRequest(err.Error()))
		return
	}

	rental, err := fn(r.Context(), userID, req.BookIDs)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}

	response.Success(w, rental)
}

func (h *RentalHandler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(w, "Invalid user ID", customError.WrapInvalidRequest("userId must be a positive integer"))
		return 0, false
	}
	return userID, true
}

func (h *RentalHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if customError.HTTPStatus(err) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	} else {
		h.logger.InfoContext(r.Context(), op+" rejected", "code", customError.Code(err), "error", err)
	}
	response.BusinessError(w, err)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
