package http

import (
	"net/http"

	"go.uber.org/zap"

	"loan-dashboard/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
	schedule *service.ScheduleService
	logger   *zap.Logger
}

func NewPaymentHandler(
	payments *service.PaymentService,
	schedule *service.ScheduleService,
	logger *zap.Logger,
) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{payments: payments, schedule: schedule, logger: logger}
}

func (h *PaymentHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	receipt, err := h.payments.Pay(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *PaymentHandler) RecentPayments(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", service.DefaultRecentPayments)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	records, err := h.payments.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// UpcomingPayments serves the payment calendar, ?loan=<id> narrows it to one
// loan, ?months=<n> sets the horizon.
func (h *PaymentHandler) UpcomingPayments(w http.ResponseWriter, r *http.Request) {
	months, err := intQuery(r, "months", service.DefaultUpcomingMonths)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if months > 120 {
		months = 120
	}
	loan, err := intQuery(r, "loan", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.schedule.Upcoming(months, int64(loan)))
}

func (h *PaymentHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	summary, err := h.schedule.Breakdown()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
