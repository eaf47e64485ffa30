package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/auth"
	service "github.com/honeynil/TravelBookingService/internal/services"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

const dateLayout = "2006-01-02"

type Handler struct {
	auth     service.AuthService
	listings service.ListingService
	bookings service.BookingService
	payments service.PaymentService
}

func NewHandler(
	authSvc service.AuthService,
	listings service.ListingService,
	bookings service.BookingService,
	payments service.PaymentService,
) *Handler {
	return &Handler{
		auth:     authSvc,
		listings: listings,
		bookings: bookings,
		payments: payments,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps domain errors to HTTP responses. A gateway status
// error is relayed with the gateway's own status code and body.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if gwErr, ok := pkgerrors.AsGatewayError(err); ok {
		switch gwErr.Kind {
		case pkgerrors.GatewayStatus:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(gwErr.StatusCode)
			w.Write(gwErr.Body)
		case pkgerrors.GatewayTransport:
			if isTimeout(gwErr.Err) {
				h.writeError(w, http.StatusGatewayTimeout, err)
				return
			}
			h.writeError(w, http.StatusBadGateway, err)
		default:
			h.writeError(w, http.StatusBadGateway, err)
		}
		return
	}

	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, pkgerrors.ErrDuplicateTxRef), errors.Is(err, pkgerrors.ErrUsernameExists):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, pkgerrors.ErrConstraintViolation), errors.Is(err, pkgerrors.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, pkgerrors.ErrForbidden):
		h.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, pkgerrors.ErrVerificationInProgress), errors.Is(err, pkgerrors.ErrStaleUpdate):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.writeError(w, http.StatusInternalServerError, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/listings", h.ListListings).Methods("GET")
	r.HandleFunc("/listings/{id}", h.GetListing).Methods("GET")
	r.HandleFunc("/listings/{id}/reviews", h.ListReviews).Methods("GET")
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/listings", h.CreateListing).Methods("POST")
	r.HandleFunc("/listings/{id}", h.DeleteListing).Methods("DELETE")
	r.HandleFunc("/listings/{id}/reviews", h.CreateReview).Methods("POST")
	r.HandleFunc("/bookings", h.CreateBooking).Methods("POST")
	r.HandleFunc("/bookings", h.ListBookings).Methods("GET")
	r.HandleFunc("/bookings/{id}", h.GetBooking).Methods("GET")
	r.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods("POST")
	r.HandleFunc("/bookings/{id}/initiate_payment", h.InitiatePayment).Methods("POST")
	r.HandleFunc("/bookings/{id}/verify_payment", h.VerifyPayment).Methods("GET")
	r.HandleFunc("/bookings/{id}/payments", h.ListPayments).Methods("GET")
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errors.New("invalid id")
	}
	return id, nil
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
	}
	return userID, ok
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	userID, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"user_id": userID.String()})
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	listings, err := h.listings.ListListings(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listings)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	listing, err := h.listings.GetListing(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name          string          `json:"name"`
		Description   string          `json:"description"`
		Location      string          `json:"location"`
		PricePerNight decimal.Decimal `json:"price_per_night"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), service.CreateListingInput{
		HostID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		PricePerNight: req.PricePerNight,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, listing)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.listings.DeleteListing(r.Context(), id, userID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	reviews, err := h.listings.ListReviews(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	review, err := h.listings.CreateReview(r.Context(), service.CreateReviewInput{
		ListingID: id,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, review)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ListingID  uuid.UUID        `json:"property_id"`
		StartDate  string           `json:"start_date"`
		EndDate    string           `json:"end_date"`
		TotalPrice *decimal.Decimal `json:"total_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("start_date must be YYYY-MM-DD"))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("end_date must be YYYY-MM-DD"))
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingInput{
		ListingID:  req.ListingID,
		UserID:     userID,
		StartDate:  start,
		EndDate:    end,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	bookings, err := h.bookings.ListBookings(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	booking, err := h.bookings.GetBooking(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	booking, err := h.bookings.CancelBooking(r.Context(), id, userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := h.payments.InitiatePayment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"payment":      payment,
		"checkout_url": payment.CheckoutURL,
	})
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := h.payments.VerifyPayment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"payment_status": string(payment.Status)})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	payments, err := h.payments.ListPayments(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}
