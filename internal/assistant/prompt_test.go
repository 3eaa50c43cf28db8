package assistant

import (
	"strings"
	"testing"
	"time"

	"github.com/aura-booking/backend/internal/analytics"
)

func sampleSummary() *analytics.Summary {
	return &analytics.Summary{
		From:           time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		To:             time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TotalsByStatus: map[string]int{"completed": 12, "cancelled": 2},
		UpcomingCount:  7,
		BusiestStaff:   []analytics.StaffLoad{{DisplayName: "Marta", Count: 9}},
	}
}

func TestBuildSystemPromptWithoutRevenue(t *testing.T) {
	got := BuildSystemPrompt("Glow Studio", sampleSummary())
	if !strings.Contains(got, "Glow Studio") {
		t.Errorf("missing organization name in %q", got)
	}
	if !strings.Contains(got, "completed: 12") || !strings.Contains(got, "Marta: 9") {
		t.Errorf("missing activity data in %q", got)
	}
	if strings.Contains(got, "revenue") || strings.Contains(got, "Revenue") {
		t.Errorf("revenue must not appear without an admin summary: %q", got)
	}
}

func TestBuildSystemPromptWithRevenue(t *testing.T) {
	s := sampleSummary()
	cents := 123450
	s.RevenueCents = &cents
	got := BuildSystemPrompt("Glow Studio", s)
	if !strings.Contains(got, "1234.50") {
		t.Errorf("expected revenue figure in %q", got)
	}
}

func TestBuildSystemPromptNilSummary(t *testing.T) {
	got := BuildSystemPrompt("Glow Studio", nil)
	if !strings.Contains(got, "No activity data") {
		t.Errorf("expected fallback text, got %q", got)
	}
}
