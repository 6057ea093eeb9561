package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"roadmapper/internal/repositories"
	"roadmapper/internal/services"
)

const signatureHeader = "X-Hub-Signature-256"

// WebhookHandler accepts pull-request notifications from the repository's
// CI, signed with the shared webhook secret.
type WebhookHandler struct {
	settings services.SettingsService
	features services.FeatureService
	log      *slog.Logger
}

func NewWebhookHandler(settings services.SettingsService, features services.FeatureService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{settings: settings, features: features, log: log}
}

// PullRequest handles POST /webhooks/pull-request
func (h *WebhookHandler) PullRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	settings, err := h.settings.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if settings.WebhookSecret == "" {
		writeError(w, http.StatusServiceUnavailable, "webhook secret not configured")
		return
	}
	if err := VerifySignature(settings.WebhookSecret, body, r.Header.Get(signatureHeader)); err != nil {
		h.log.Warn("webhook signature rejected", "request_id", requestID(r), "error", err)
		writeError(w, http.StatusUnauthorized, "authentication failed: "+err.Error())
		return
	}

	sessionID := strings.TrimSpace(gjson.GetBytes(body, "session_id").String())
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id not provided")
		return
	}

	f, err := h.features.MarkMergedBySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found", "message": "no matching task found"})
			return
		}
		writeServiceError(w, err)
		return
	}
	h.log.Info("feature closed by merged pull request", "feature", f.ID, "session", sessionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "featureId": f.ID})
}

var (
	errMissingSignature = errors.New("missing signature")
	errBadSignature     = errors.New("signature mismatch")
)

// VerifySignature checks a "sha256=<hex>" HMAC of body under secret.
func VerifySignature(secret string, body []byte, header string) error {
	if header == "" {
		return errMissingSignature
	}
	algo, sig, ok := strings.Cut(header, "=")
	if !ok {
		return errors.New("invalid signature format")
	}
	if algo != "sha256" {
		return errors.New("unsupported signature type")
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return errors.New("invalid signature encoding")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return errBadSignature
	}
	return nil
}

// Sign returns the header value VerifySignature accepts.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
