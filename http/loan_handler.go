package http

import (
	"net/http"
	"slices"

	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/service"
)

type LoanHandler struct {
	store   *service.LoanStore
	service *service.LoanService
	logger  *zap.Logger
}

func NewLoanHandler(store *service.LoanStore, svc *service.LoanService, logger *zap.Logger) *LoanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanHandler{store: store, service: svc, logger: logger}
}

func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	loan, err := h.store.Get(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var draft domain.LoanDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	loan, err := h.store.AddLoan(r.Context(), draft)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var patch domain.LoanPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	loan, err := h.store.UpdateLoan(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// DeleteLoan answers 204 whether or not the loan existed.
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.store.DeleteLoan(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleResponse struct {
	LoanID  int64                   `json:"loanId"`
	Periods []domain.SchedulePeriod `json:"periods"`
}

// LoanSchedule amortizes the remaining balance over the payments left.
// ?thin=yearly keeps the first period and every twelfth.
func (h *LoanHandler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := loanID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	loan, err := h.store.Get(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp := scheduleResponse{LoanID: id, Periods: []domain.SchedulePeriod{}}
	if loan.Remaining <= 0 || loan.PaymentsRemaining <= 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rate, err := domain.ParseRate(loan.InterestRate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	seq, err := h.service.Schedule(domain.LoanInput{
		Amount:       loan.Remaining,
		InterestRate: rate,
		TermMonths:   loan.PaymentsRemaining,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if r.URL.Query().Get("thin") == "yearly" {
		seq = service.YearlyPeriods(seq)
	}
	resp.Periods = slices.Collect(seq)
	writeJSON(w, http.StatusOK, resp)
}
