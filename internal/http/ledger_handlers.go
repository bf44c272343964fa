package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	t, err := s.transactionFromRequest(req)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t.OwnerKey = ownerFrom(r.Context())

	saved, err := s.ledger.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newTransactionDTO(saved)).Write(w)
}

// transactionFromRequest converts the body; a blank date means now.
func (s *Server) transactionFromRequest(req createTransactionRequest) (core.Transaction, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return core.Transaction{}, err
	}
	occurredAt, err := parseOptionalInstant(req.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if occurredAt.IsZero() {
		occurredAt = s.now().UTC()
	}
	return core.Transaction{
		Kind:        kind,
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		OccurredAt:  occurredAt,
		Status:      status,
		IsRecurring: req.IsRecurring,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	txs, err := s.ledger.ListTransactions(r.Context(), ownerFrom(r.Context()), params.Year, params.Month)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newTransactionList(txs)).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.GetTransaction(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newTransactionDTO(t)).Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var req patchTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := transactionPatchFromRequest(req)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	t, err := s.ledger.EditTransaction(r.Context(), ownerFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(newTransactionDTO(t)).Write(w)
}

func transactionPatchFromRequest(req patchTransactionRequest) (services.TransactionPatch, error) {
	var patch services.TransactionPatch
	if req.Kind != nil {
		kind, err := core.ParseKind(*req.Kind)
		if err != nil {
			return patch, err
		}
		patch.Kind = &kind
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &amount
	}
	if req.Category != nil {
		category := sanitizeInput(*req.Category)
		patch.Category = &category
	}
	if req.Description != nil {
		description := sanitizeInput(*req.Description)
		patch.Description = &description
	}
	if req.OccurredAt != nil {
		at, err := parseInstant(*req.OccurredAt)
		if err != nil {
			return patch, err
		}
		patch.OccurredAt = &at
	}
	if req.Status != nil {
		status, err := parseStatus(*req.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	patch.IsRecurring = req.IsRecurring
	return patch, nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteTransaction(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleToggleSettlement(w http.ResponseWriter, r *http.Request) {
	t, err := s.ledger.ToggleSettlement(r.Context(), ownerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpToggle, err)
		return
	}
	NewJSONResponse().Body(newTransactionDTO(t)).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	cats, err := s.ledger.ListCategories(r.Context(), ownerFrom(r.Context()), kind)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(newCategoryList(cats)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	c, err := s.ledger.AddCategory(r.Context(), ownerFrom(r.Context()), sanitizeInput(req.Name), kind)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newCategoryList([]core.Category{c})[0]).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), ownerFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
