// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"staychain/internal/app"
	"staychain/internal/domain"
)

type Handlers struct{ S *app.SettlementService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/bookings", h.bookRoom)
	s.mux.Get("/v1/addresses/{address}/balance", h.getBalance)
	s.mux.Get("/v1/addresses/{address}/payment-coin", h.findPaymentCoin)
	s.mux.Get("/v1/addresses/{address}/attempts", h.listAttempts)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, kind string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Kind: kind}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeSettlementError maps the failure taxonomy onto HTTP statuses. The
// kind rides along so the front-end can pick its own message.
func writeSettlementError(w http.ResponseWriter, err error) {
	var se *domain.SettlementError
	if !errors.As(err, &se) {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), "")
		return
	}
	switch se.Kind {
	case domain.InvalidInput:
		writeProblem(w, http.StatusBadRequest, "Invalid Input", se.Error(), string(se.Kind))
	case domain.InsufficientBalance:
		writeProblem(w, http.StatusPaymentRequired, "Insufficient Balance", se.Error(), string(se.Kind))
	case domain.InventoryUnavailable:
		writeProblem(w, http.StatusServiceUnavailable, "Ledger Unavailable", se.Error(), string(se.Kind))
	case domain.Timeout:
		writeProblem(w, http.StatusGatewayTimeout, "Timed Out", se.Error(), string(se.Kind))
	default: // merge and transaction failures
		writeProblem(w, http.StatusBadGateway, "Settlement Failed", se.Error(), string(se.Kind))
	}
}

// ---- booking ----

type bookingBody struct {
	HotelID       string            `json:"hotelId"`
	RoomID        string            `json:"roomId"`
	GuestAddress  string            `json:"guestAddress"`
	ArrivalDate   string            `json:"arrivalDate"`   // RFC 3339 or YYYY-MM-DD
	DepartureDate string            `json:"departureDate"` // same
	TotalCost     float64           `json:"totalCost"`     // display units
	GuestInfo     map[string]string `json:"guestInfo,omitempty"`
}

func parseDate(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func (h *Handlers) bookRoom(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be JSON", string(domain.InvalidInput))
		return
	}

	req := domain.BookingRequest{
		HotelID:       body.HotelID,
		RoomID:        body.RoomID,
		GuestAddress:  body.GuestAddress,
		ArrivalDate:   parseDate(body.ArrivalDate),
		DepartureDate: parseDate(body.DepartureDate),
		TotalCost:     body.TotalCost,
		GuestInfo:     body.GuestInfo,
	}

	receipt, err := h.S.BookRoom(r.Context(), req)
	if err != nil {
		writeSettlementError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"digest":    receipt.Digest,
		"status":    receipt.Status,
		"timestamp": receipt.Timestamp.Format(time.RFC3339),
	})
}

// ---- balance + preflight ----

func (h *Handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	total, err := h.S.Balance(r.Context(), addr)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address":   addr,
		"baseUnits": total,
		"balance":   domain.FromBaseUnits(total),
	})
}

func (h *Handlers) findPaymentCoin(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid amount", "amount must be a positive number", string(domain.InvalidInput))
		return
	}
	coin, err := h.S.FindPaymentCoin(r.Context(), addr, amount)
	if err != nil {
		writeSettlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"coinId":  coin.ID,
		"balance": coin.Balance,
	})
}

func (h *Handlers) listAttempts(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200", string(domain.InvalidInput))
			return
		}
		limit = l
	}
	attempts, err := h.S.Attempts(r.Context(), addr, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Journal Unavailable", err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": attempts})
}
