package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-image-studio/internal/domain"
	"ai-image-studio/internal/infra/logging"
	"ai-image-studio/internal/usecase"
)

const maxUploadBytes = 32 << 20 // 32 MiB

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses. Client-attributable
// errors carry their message; everything else is an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidSignature):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientCredits):
		code = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrCheckoutInFlight):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstreamFailure):
		// Surface the provider's own message so the client can show it.
		code = http.StatusBadGateway
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// ----- auth -----

type sessionRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type sessionResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Created bool   `json:"created"`
	Token   string `json:"token"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	user, created, err := s.userUC.EnsureAccount(r.Context(), req.UserID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := s.auth.Mint(w, user.ID, user.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Created: created,
		Token:   token,
	})
}

// ----- credits -----

func (s *Server) handleCredits(w http.ResponseWriter, r *http.Request) {
	balance, err := s.credUC.Balance(r.Context(), UserID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "User not found"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"credits": balance})
}

// ----- payments -----

type checkoutRequest struct {
	Credits int64 `json:"credits"`
	Price   int64 `json:"price"` // cents
}

type checkoutResponse struct {
	PaymentID string `json:"payment_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	// Body is optional; an empty request buys the default pack.
	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
			return
		}
	}

	ctx := r.Context()
	p, url, err := s.payUC.InitiateCheckout(ctx, UserID(ctx), Email(ctx), req.Credits, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{PaymentID: p.ID, SessionID: p.SessionID, URL: url})
}

type paymentView struct {
	ID        string     `json:"id"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	Credits   int64      `json:"credits"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := s.payUC.History(r.Context(), UserID(r.Context()), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentView{
			ID:        p.ID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Credits:   p.Credits,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
			PaidAt:    p.PaidAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": out})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "payload too large", http.StatusBadRequest)
		return
	}

	err = s.whUC.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			http.Error(w, "invalid signature", http.StatusBadRequest)
			return
		}
		// Once the event is authenticated we always acknowledge it. A non-OK
		// here would put the provider into a redelivery storm; lost grants are
		// recovered by the pending-payment sweep instead.
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Msg("webhook processing failed, acknowledging anyway")
	}
	w.WriteHeader(http.StatusOK)
}

// ----- generation -----

type generateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio"`
	Model       string `json:"model"`
	Image       string `json:"image"`
}

type generateResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	asset, err := s.genUC.Generate(r.Context(), UserID(r.Context()), usecase.GenerateParams{
		Prompt:            req.Prompt,
		AspectRatio:       req.AspectRatio,
		Model:             req.Model,
		ImageReferenceURL: req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{ID: asset.ID, URL: asset.URL})
}

// ----- assets -----

type assetView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	Mirrored  bool      `json:"mirrored"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleAssetList(w http.ResponseWriter, r *http.Request) {
	assets, err := s.assetUC.List(r.Context(), UserID(r.Context()), 100)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]assetView, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetView{
			ID:        a.ID,
			URL:       a.URL,
			Prompt:    a.Prompt,
			Mirrored:  a.Mirrored,
			CreatedAt: a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) handleAssetDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.assetUC.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read file"})
		return
	}

	url, err := s.assetUC.Upload(r.Context(), UserID(r.Context()), data, hdr.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
