package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Loans      *LoanHandler
	Payments   *PaymentHandler
	Calculator *CalculatorHandler
	Chat       *ChatHandler
}

// NewRouter wires the API routes. The assistant backed routes share limiter.
func NewRouter(h Handlers, limiter *RateLimiter, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.Loans.ListLoans)
		r.Post("/", h.Loans.CreateLoan)
		r.Get("/breakdown", h.Payments.Breakdown)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Loans.GetLoan)
			r.Patch("/", h.Loans.UpdateLoan)
			r.Delete("/", h.Loans.DeleteLoan)
			r.Post("/payments", h.Payments.MakePayment)
			r.Get("/schedule", h.Loans.LoanSchedule)
		})
	})

	r.Get("/payments/recent", h.Payments.RecentPayments)
	r.Get("/payments/upcoming", h.Payments.UpcomingPayments)

	r.Post("/calculate", h.Calculator.CalculateLoan)
	r.Get("/calculator", h.Calculator.GetState)
	r.Put("/calculator", h.Calculator.UpdateState)
	r.Post("/calculator/loans", h.Calculator.PromoteCalculator)

	r.With(RateLimitMiddleware(limiter, "chat")).Post("/chat", h.Chat.Chat)
	r.With(RateLimitMiddleware(limiter, "recommendations")).Get("/recommendations", h.Chat.Recommendations)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
