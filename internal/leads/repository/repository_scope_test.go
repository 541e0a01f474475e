package repository

import (
	"strings"
	"testing"
)

func TestLeadQueriesAreTenantScoped(t *testing.T) {
	queries := map[string]string{
		"get":          getLeadQuery,
		"lock":         lockLeadQuery,
		"exists":       leadExistsQuery,
		"pool":         listPoolQuery,
		"activities":   listActivitiesQuery,
		"stale":        listStaleAssignedQuery,
		"active phone": findActiveByPhoneQuery,
		"update":       updateLeadQuery,
		"cursor lock":  lockCursorQuery,
		"cursor save":  saveCursorQuery,
	}

	for name, query := range queries {
		if !strings.Contains(strings.ToLower(query), "tenant_id = $") {
			t.Fatalf("expected %s query to filter by tenant_id", name)
		}
	}
}

func TestLockLeadQueryTakesRowLock(t *testing.T) {
	query := strings.ToLower(lockLeadQuery)

	requiredFragments := []string{
		"from leads",
		"where id = $1 and tenant_id = $2",
		"for update",
	}
	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected lock query fragment %q to be present", fragment)
		}
	}
}

func TestGetLeadQueryDoesNotLock(t *testing.T) {
	if strings.Contains(strings.ToLower(getLeadQuery), "for update") {
		t.Fatal("plain reads must not take row locks")
	}
}

func TestActivePhoneQueryExcludesTerminalLeads(t *testing.T) {
	query := strings.ToLower(findActiveByPhoneQuery)

	if !strings.Contains(query, "status not in ('won', 'void')") {
		t.Fatal("duplicate lookup must ignore terminal leads")
	}
}

func TestCursorQueriesLockTheRow(t *testing.T) {
	if !strings.Contains(strings.ToLower(lockCursorQuery), "for update") {
		t.Fatal("cursor read must lock the cursor row")
	}
	if !strings.Contains(strings.ToLower(ensureCursorQuery), "on conflict (tenant_id, scope_key) do nothing") {
		t.Fatal("cursor creation must be idempotent")
	}
}
