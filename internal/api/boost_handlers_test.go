package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pazarnet/discovery/internal/auth"
	"github.com/pazarnet/discovery/internal/boost"
)

func boostBody(t *testing.T, scope, target string, multiplier float64, startsAt, endsAt time.Time) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"scope":      scope,
		"target_id":  target,
		"multiplier": multiplier,
		"starts_at":  startsAt,
		"ends_at":    endsAt,
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestCreateBoostRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-1", auth.RoleViewer)

	now := time.Now().UTC()
	rec := f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "LISTING", "l1", 2.0, now, now.Add(24*time.Hour)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != "forbidden" {
		t.Errorf("error code = %s, want forbidden", resp.Error.Code)
	}
}

func TestCreateBoost(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-admin", auth.RoleAdmin)

	now := time.Now().UTC()
	rec := f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "SELLER", "seller-1", 1.5, now, now.Add(7*24*time.Hour)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var rule boost.Rule
	if err := json.Unmarshal(rec.Body.Bytes(), &rule); err != nil {
		t.Fatalf("response is not a rule: %v", err)
	}
	if rule.ID == "" {
		t.Error("created rule has no ID")
	}
	if rule.Scope != boost.ScopeSeller || rule.TargetID != "seller-1" {
		t.Errorf("rule target = %s/%s, want SELLER/seller-1", rule.Scope, rule.TargetID)
	}
	if rule.CreatedByTenantID != "tenant-admin" {
		t.Errorf("CreatedByTenantID = %s, want token tenant", rule.CreatedByTenantID)
	}
	if !rule.IsActive {
		t.Error("created rule is not active")
	}
}

func TestCreateBoostValidation(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-admin", auth.RoleAdmin)
	now := time.Now().UTC()

	tests := []struct {
		name string
		body []byte
	}{
		{"invalid json", []byte("{")},
		{"bad scope", boostBody(t, "GALAXY", "x", 2.0, now, now.Add(time.Hour))},
		{"empty target", boostBody(t, "LISTING", "", 2.0, now, now.Add(time.Hour))},
		{"multiplier too high", boostBody(t, "LISTING", "l1", 5.5, now, now.Add(time.Hour))},
		{"multiplier zero", boostBody(t, "LISTING", "l1", 0, now, now.Add(time.Hour))},
		{"inverted window", boostBody(t, "LISTING", "l1", 2.0, now.Add(time.Hour), now)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/network/boosts", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateBoostOverlapConflict(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-admin", auth.RoleAdmin)
	now := time.Now().UTC()

	rec := f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "LISTING", "l1", 2.0, now, now.Add(48*time.Hour)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "LISTING", "l1", 3.0, now.Add(24*time.Hour), now.Add(72*time.Hour)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlapping create status = %d, want 409", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != "overlapping_rule" {
		t.Errorf("error code = %s, want overlapping_rule", resp.Error.Code)
	}
}

func TestDeactivateBoost(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-admin", auth.RoleAdmin)
	now := time.Now().UTC()

	rec := f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "CATEGORY", "cat-1", 1.2, now, now.Add(time.Hour)))
	var rule boost.Rule
	if err := json.Unmarshal(rec.Body.Bytes(), &rule); err != nil {
		t.Fatalf("decode created rule: %v", err)
	}

	rec = f.do(t, http.MethodDelete, "/network/boosts/"+rule.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d, want 204", rec.Code)
	}

	// Soft delete is idempotent through the store but unknown IDs are 404.
	rec = f.do(t, http.MethodDelete, "/network/boosts/no-such-rule", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown rule status = %d, want 404", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != "not_found" {
		t.Errorf("error code = %s, want not_found", resp.Error.Code)
	}
}

func TestBoostAuditTrail(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "tenant-admin", auth.RoleAdmin)
	now := time.Now().UTC()

	rec := f.do(t, http.MethodPost, "/network/boosts", token,
		boostBody(t, "LISTING", "l1", 2.0, now, now.Add(time.Hour)))
	var rule boost.Rule
	if err := json.Unmarshal(rec.Body.Bytes(), &rule); err != nil {
		t.Fatalf("decode created rule: %v", err)
	}
	if rec := f.do(t, http.MethodDelete, "/network/boosts/"+rule.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d", rec.Code)
	}

	// Both mutations appear in the caller's trail, newest first.
	rec = f.do(t, http.MethodGet, "/network/boosts/audit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d, want 200", rec.Code)
	}
	var resp struct {
		Entries []auditEntryResponse `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(resp.Entries))
	}
	if resp.Entries[0].Action != "DEACTIVATED_BOOST_RULE" || resp.Entries[1].Action != "CREATED_BOOST_RULE" {
		t.Errorf("actions = %s, %s; want deactivation first", resp.Entries[0].Action, resp.Entries[1].Action)
	}

	// Filtering by entity returns the same pair.
	rec = f.do(t, http.MethodGet, fmt.Sprintf("/network/boosts/audit?entity_id=%s", rule.ID), token, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode audit response: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("entity-filtered entries = %d, want 2", len(resp.Entries))
	}
}
