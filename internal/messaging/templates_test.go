package messaging

import (
	"strings"
	"testing"
	"time"

	"github.com/aura-booking/backend/internal/models"
)

func sampleData() TemplateData {
	return TemplateData{
		OrganizationName: "Glow Studio",
		CustomerName:     "Ana",
		ServiceName:      "Haircut",
		StaffName:        "Marta",
		StartsAt:         time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		Timezone:         "Europe/Madrid",
	}
}

func TestRenderTextConfirmationUsesLocalTime(t *testing.T) {
	got := RenderText(models.MessageTypeConfirmation, sampleData())
	if !strings.Contains(got, "Ana") || !strings.Contains(got, "Haircut") {
		t.Fatalf("missing customer or service: %q", got)
	}
	// 14:00 UTC is 16:00 in Madrid during DST.
	if !strings.Contains(got, "16:00") {
		t.Errorf("expected organization-local time in %q", got)
	}
}

func TestRenderTextInvalidTimezoneFallsBackToUTC(t *testing.T) {
	d := sampleData()
	d.Timezone = "Not/AZone"
	got := RenderText(models.MessageTypeReminder, d)
	if !strings.Contains(got, "14:00") {
		t.Errorf("expected UTC time in %q", got)
	}
}

func TestRenderTextCancellationIncludesReason(t *testing.T) {
	d := sampleData()
	d.CancelReason = "staff illness"
	got := RenderText(models.MessageTypeCancellation, d)
	if !strings.Contains(got, "cancelled") || !strings.Contains(got, "staff illness") {
		t.Errorf("missing cancellation details: %q", got)
	}
}

func TestRenderTextUnknownTypeIsEmpty(t *testing.T) {
	if got := RenderText("promo", sampleData()); got != "" {
		t.Errorf("expected empty body for unknown type, got %q", got)
	}
}

func TestRenderSubject(t *testing.T) {
	got := RenderSubject(models.MessageTypeReminder, sampleData())
	if !strings.Contains(got, "reminder") || !strings.Contains(got, "Glow Studio") {
		t.Errorf("unexpected subject %q", got)
	}
}
