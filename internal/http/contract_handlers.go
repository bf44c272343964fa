package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := contractFromRequest(req)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c.OwnerKey = ownerFrom(r.Context())

	saved, err := s.debts.CreateContract(r.Context(), c)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newContractDTO(saved)).Write(w)
}

func contractFromRequest(req createContractRequest) (core.Contract, error) {
	typ, err := core.ParseContractType(req.Type)
	if err != nil {
		return core.Contract{}, err
	}
	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		return core.Contract{}, err
	}
	paid, err := parseOptionalAmount(req.PaidAmount)
	if err != nil {
		return core.Contract{}, err
	}
	start, err := parseOptionalInstant(req.StartDate)
	if err != nil {
		return core.Contract{}, err
	}
	due, err := parseOptionalInstant(req.DueDate)
	if err != nil {
		return core.Contract{}, err
	}
	rate, err := parseRate(req.MonthlyInterestRate)
	if err != nil {
		return core.Contract{}, err
	}

	c := core.Contract{
		Type:                typ,
		Description:         sanitizeInput(req.Description),
		TotalAmount:         total,
		PaidAmount:          paid,
		StartDate:           start,
		DueDate:             due,
		InstallmentCount:    req.InstallmentCount,
		InstallmentsPaid:    req.InstallmentsPaid,
		MonthlyInterestRate: rate,
	}
	if typ == core.ContractFinancing {
		c.Category = core.ParseFinancingCategory(req.Category)
	}
	return c, nil
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := s.debts.ListContracts(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newContractList(contracts)).Write(w)
}

func (s *Server) handleContractsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.debts.Summary(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newSummaryDTO(summary)).Write(w)
}

func (s *Server) handleFinancings(w http.ResponseWriter, r *http.Request) {
	groups, err := s.debts.Financings(r.Context(), ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	out := make(map[string][]contractDTO, len(groups))
	for cat, contracts := range groups {
		out[string(cat)] = newContractList(contracts)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	c, err := s.debts.GetContract(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newContractDTO(c)).Write(w)
}

func (s *Server) handleEditContract(w http.ResponseWriter, r *http.Request) {
	var req patchContractRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := contractPatchFromRequest(req)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	c, err := s.debts.EditContract(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newContractDTO(c)).Write(w)
}

func contractPatchFromRequest(req patchContractRequest) (services.ContractPatch, error) {
	var patch services.ContractPatch
	if req.Description != nil {
		description := sanitizeInput(*req.Description)
		patch.Description = &description
	}
	if req.Category != nil {
		category := core.ParseFinancingCategory(*req.Category)
		patch.Category = &category
	}
	if req.TotalAmount != nil {
		total, err := parseAmount(*req.TotalAmount)
		if err != nil {
			return patch, err
		}
		patch.TotalAmount = &total
	}
	if req.StartDate != nil {
		start, err := parseInstant(*req.StartDate)
		if err != nil {
			return patch, err
		}
		patch.StartDate = &start
	}
	if req.DueDate != nil {
		due, err := parseOptionalInstant(*req.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}
	if req.MonthlyInterestRate != nil {
		rate, err := parseRate(*req.MonthlyInterestRate)
		if err != nil {
			return patch, err
		}
		patch.MonthlyInterestRate = &rate
	}
	patch.InstallmentCount = req.InstallmentCount
	return patch, nil
}

func (s *Server) handleDeleteContract(w http.ResponseWriter, r *http.Request) {
	if err := s.debts.DeleteContract(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleRegisterPayment answers 500 with the updated contract when the
// contract moved but its ledger entry was not recorded.
func (s *Server) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpPayment, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, log.OpPayment, err)
		return
	}

	res, err := s.debts.RegisterPayment(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), amount)
	var partial *services.PartialPaymentError
	if errors.As(err, &partial) {
		NewJSONResponse().Status(http.StatusInternalServerError).Body(partialPaymentDTO{
			Error:                  "payment ledger entry not recorded",
			ReconciliationRequired: true,
			Contract:               newContractDTO(partial.Contract),
		}).Write(w)
		return
	}
	if err != nil {
		writeError(w, r, log.OpPayment, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(paymentDTO{
		Contract: newContractDTO(res.Contract),
		Entry:    newTransactionDTO(res.Entry),
	}).Write(w)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := s.debts.Reconcile(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpReconcile, err)
		return
	}
	NewJSONResponse().Body(newReconciliationDTO(rec)).Write(w)
}

// handleSimulate previews a fixed-installment schedule. Inputs that are not
// yet computable yield {"computable": false} rather than an error.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sim, ok := core.SimulateInput(q.Get("principal"), q.Get("rate"), q.Get("installments"))
	NewJSONResponse().Body(newSimulationDTO(sim, ok)).Write(w)
}
