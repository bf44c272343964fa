package http

import (
	"net/http"

	"fintrack/internal/log"
)

func (s *Server) handlePeriodReport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	report, err := s.reports.PeriodReport(r.Context(), ownerFrom(r.Context()), params.Year, params.Month)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newPeriodReportDTO(report)).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	d, err := s.reports.Dashboard(r.Context(), ownerFrom(r.Context()), params.Year, params.Month)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newDashboardDTO(d)).Write(w)
}

func (s *Server) handleYearNetIncome(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	months, err := s.reports.YearNetIncome(r.Context(), ownerFrom(r.Context()), params.Year)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(newYearDTO(params.Year, months)).Write(w)
}

// handleExportPeriod pushes a month to the configured sheet synchronously.
// Zero year or month mean the current one.
func (s *Server) handleExportPeriod(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	now := s.now().UTC()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}

	if err := s.reports.ExportPeriod(r.Context(), ownerFrom(r.Context()), req.Year, req.Month); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().Status(http.StatusAccepted).Body(map[string]any{
		"year":  req.Year,
		"month": req.Month,
	}).Write(w)
}
