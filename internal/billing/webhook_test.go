package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-booking/backend/config"
)

const testWebhookSecret = "whsec_test_secret"

func newWebhookRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, config.StripeConfig{WebhookSecret: testWebhookSecret}, zap.NewNop())
	r := gin.New()
	r.POST("/webhooks/stripe", h.Webhook)
	return r
}

// signPayload builds a Stripe-Signature header the way Stripe does: an HMAC
// SHA-256 of "<timestamp>.<payload>" keyed with the webhook secret.
func signPayload(payload string, ts time.Time, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(r *gin.Engine, payload, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", sigHeader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	r := newWebhookRouter(t)
	w := postWebhook(r, `{"type":"invoice.paid"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	r := newWebhookRouter(t)
	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`
	w := postWebhook(r, payload, signPayload(payload, time.Now(), "whsec_other"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookRejectsTamperedPayload(t *testing.T) {
	r := newWebhookRouter(t)
	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`
	sig := signPayload(payload, time.Now(), testWebhookSecret)
	w := postWebhook(r, strings.Replace(payload, "evt_1", "evt_2", 1), sig)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookRejectsStaleTimestamp(t *testing.T) {
	r := newWebhookRouter(t)
	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`
	w := postWebhook(r, payload, signPayload(payload, time.Now().Add(-time.Hour), testWebhookSecret))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for stale signature, got %d", w.Code)
	}
}

func TestWebhookAcknowledgesUnhandledEvent(t *testing.T) {
	r := newWebhookRouter(t)
	payload := `{"id":"evt_1","type":"customer.created","data":{"object":{}}}`
	w := postWebhook(r, payload, signPayload(payload, time.Now(), testWebhookSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled event, got %d, body %s", w.Code, w.Body.String())
	}
}

func TestWebhookIgnoresCheckoutWithoutOrgReference(t *testing.T) {
	r := newWebhookRouter(t)
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":""}}}`
	w := postWebhook(r, payload, signPayload(payload, time.Now(), testWebhookSecret))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body %s", w.Code, w.Body.String())
	}
}
