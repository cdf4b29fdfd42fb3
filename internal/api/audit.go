package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/nerrad567/ohbridge/internal/audit"
)

// handleListAuditLogs serves the audit trail, newest first.
//
// Query parameters: action, serial, limit (default 50, max 200), offset.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action"), Serial: q.Get("serial")}
	var ok bool
	if filter.Limit, ok = nonNegative(q, "limit"); !ok {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, ok = nonNegative(q, "offset"); !ok {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// nonNegative parses an optional integer parameter; absent means 0.
func nonNegative(q url.Values, name string) (int, bool) {
	v := q.Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil && n >= 0
}
