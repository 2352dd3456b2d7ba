package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

func sortFields(fields ...string) map[string]bool {
	m := map[string]bool{"id": true, "created_at": true, "updated_at": true}
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// Sort whitelists per table. Keys are column names.
var (
	UserSortFields      = sortFields("email", "name", "role", "status", "last_login_at", "last_assigned_at")
	ContactSortFields   = sortFields("name", "email", "company", "city", "state", "country", "stage", "source", "lead_score", "assigned_at")
	TerritorySortFields = sortFields("name", "priority", "active")
	DealSortFields      = sortFields("title", "value", "stage", "probability", "expected_close_date", "closed_at")
	DocumentSortFields  = sortFields("title", "file_name", "status", "size_bytes", "chunk_count")
	InvoiceSortFields   = sortFields("number", "issue_date", "due_date", "total", "amount_paid", "status")
	EmployeeSortFields  = sortFields("employee_code", "name", "department", "designation", "join_date", "status", "monthly_salary")
	ProjectSortFields   = sortFields("code", "name", "status", "budget", "start_date", "end_date", "progress")
)
