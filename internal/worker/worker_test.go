package worker

import (
	"testing"

	"github.com/aura-booking/backend/internal/models"
)

func allEnabled() *models.NotificationSettings {
	return &models.NotificationSettings{WhatsAppEnabled: true, SMSEnabled: true, EmailEnabled: true}
}

func TestResolveChannelHonorsPreference(t *testing.T) {
	ch, recipient := ResolveChannel(models.ChannelSMS, "+14155550134", "ana@example.com", allEnabled())
	if ch != models.ChannelSMS || recipient != "+14155550134" {
		t.Fatalf("got %s %q", ch, recipient)
	}
}

func TestResolveChannelFallsBackWhenPreferredDisabled(t *testing.T) {
	s := allEnabled()
	s.WhatsAppEnabled = false
	ch, recipient := ResolveChannel(models.ChannelWhatsApp, "+14155550134", "ana@example.com", s)
	if ch != models.ChannelSMS || recipient != "+14155550134" {
		t.Fatalf("expected sms fallback, got %s %q", ch, recipient)
	}
}

func TestResolveChannelFallsBackWhenRecipientMissing(t *testing.T) {
	ch, recipient := ResolveChannel(models.ChannelWhatsApp, "", "ana@example.com", allEnabled())
	if ch != models.ChannelEmail || recipient != "ana@example.com" {
		t.Fatalf("expected email fallback, got %s %q", ch, recipient)
	}
}

func TestResolveChannelNonePreferenceSkips(t *testing.T) {
	ch, _ := ResolveChannel(models.ChannelNone, "+14155550134", "ana@example.com", allEnabled())
	if ch != models.ChannelNone {
		t.Fatalf("expected none, got %s", ch)
	}
}

func TestResolveChannelNothingUsable(t *testing.T) {
	s := &models.NotificationSettings{}
	ch, _ := ResolveChannel(models.ChannelWhatsApp, "+14155550134", "ana@example.com", s)
	if ch != models.ChannelNone {
		t.Fatalf("expected none when all channels disabled, got %s", ch)
	}
}
