package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-image-studio/internal/usecase"
)

// Server is the public HTTP surface: auth bootstrap, credits, checkout,
// webhook, generation and asset management.
type Server struct {
	auth    *AuthManager
	userUC  usecase.UserUseCase
	credUC  usecase.CreditUseCase
	payUC   usecase.PaymentUseCase
	whUC    usecase.WebhookUseCase
	genUC   usecase.GenerationUseCase
	assetUC usecase.AssetUseCase
	log     *zerolog.Logger
}

func NewServer(
	auth *AuthManager,
	userUC usecase.UserUseCase,
	credUC usecase.CreditUseCase,
	payUC usecase.PaymentUseCase,
	whUC usecase.WebhookUseCase,
	genUC usecase.GenerationUseCase,
	assetUC usecase.AssetUseCase,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		auth:    auth,
		userUC:  userUC,
		credUC:  credUC,
		payUC:   payUC,
		whUC:    whUC,
		genUC:   genUC,
		assetUC: assetUC,
		log:     logger,
	}
}

// Router builds the chi router with all public routes and ambient
// middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/session", s.handleSession)
		// The webhook authenticates itself via its signature, never via a
		// user session.
		r.Post("/payments/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireUser)
			r.Get("/credits", s.handleCredits)
			r.Post("/payments/checkout", s.handleCheckout)
			r.Get("/payments", s.handlePaymentHistory)
			r.With(generateTimeout).Post("/generate", s.handleGenerate)
			r.Get("/assets", s.handleAssetList)
			r.Delete("/assets/{id}", s.handleAssetDelete)
			r.Post("/uploads", s.handleUpload)
		})
	})
	return r
}

// Generation calls block on the upstream provider for a long time compared
// to everything else, so they get their own ceiling.
func generateTimeout(next http.Handler) http.Handler {
	return Timeout(3 * time.Minute)(next)
}
