package http

import (
	"net/http"

	"go.uber.org/zap"

	"loan-dashboard/domain"
	"loan-dashboard/service"
)

type CalculatorHandler struct {
	service    *service.LoanService
	calculator *service.Calculator
	store      *service.LoanStore
	logger     *zap.Logger
}

func NewCalculatorHandler(
	svc *service.LoanService,
	calc *service.Calculator,
	store *service.LoanStore,
	logger *zap.Logger,
) *CalculatorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculatorHandler{service: svc, calculator: calc, store: store, logger: logger}
}

// CalculateLoan is the one-shot EMI calculation.
func (h *CalculatorHandler) CalculateLoan(w http.ResponseWriter, r *http.Request) {
	var input domain.LoanInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CalculateLoan(input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *CalculatorHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calculator.State())
}

func (h *CalculatorHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var update domain.CalculatorUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.calculator.Apply(update)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type promoteRequest struct {
	Name   string `json:"name"`
	Lender string `json:"lender"`
}

// PromoteCalculator saves the current calculator figures as a tracked loan.
func (h *CalculatorHandler) PromoteCalculator(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	loan, err := h.store.PromoteCalculator(r.Context(), req.Name, req.Lender, h.calculator.State())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}
