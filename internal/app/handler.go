package app

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/smallwat3r/longerlogin/internal/auth"
	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/expiration"
	"github.com/smallwat3r/longerlogin/internal/logger"
	"github.com/smallwat3r/longerlogin/internal/metrics"
	"github.com/smallwat3r/longerlogin/internal/settings"
	"github.com/smallwat3r/longerlogin/internal/utility"

	"go.uber.org/zap"
)

const generalSettingsPath = "/admin/options-general"

// Credentials identify the single admin account.
type Credentials struct {
	User         string
	PasswordHash string
}

type Handler struct {
	options  domain.OptionRepository
	registry *settings.Registry
	sessions *auth.Issuer
	admin    Credentials
	log      *zap.Logger
}

func NewHandler(
	options domain.OptionRepository,
	registry *settings.Registry,
	sessions *auth.Issuer,
	admin Credentials,
) *Handler {
	return &Handler{
		options:  options,
		registry: registry,
		sessions: sessions,
		admin:    admin,
		log:      logger.WithModule("app"),
	}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.Current(r.Context(), r); err == nil {
		http.Redirect(w, r, generalSettingsPath, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTmpl.Execute(w, nil); err != nil {
		h.log.Error("render login page", zap.Error(err))
	}
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utility.HttpError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	user := r.PostForm.Get("log")
	password := r.PostForm.Get("pwd")
	remember := r.PostForm.Get("rememberme") != ""

	if !h.checkCredentials(user, password) {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		utility.HttpError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	s, err := h.sessions.Issue(r.Context(), w, r, user, remember)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		h.log.Error("issue session", zap.String("user", user), zap.Error(err))
		if errors.Is(err, auth.ErrLifetimeNotPositive) {
			utility.HttpError(w, http.StatusInternalServerError,
				"configured login length is not positive")
			return
		}
		utility.HttpError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	metrics.LoginsTotal.WithLabelValues("accepted").Inc()
	metrics.SessionsIssued.WithLabelValues(strconv.FormatBool(remember)).Inc()
	h.log.Info("session issued",
		zap.String("user", user),
		zap.Bool("remember", remember),
		zap.Time("expires_at", s.ExpiresAt))

	http.Redirect(w, r, generalSettingsPath, http.StatusSeeOther)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), w, r); err != nil {
		h.log.Error("revoke session", zap.Error(err))
		utility.HttpError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleSettingsPage renders every field registered on the general page.
func (h *Handler) HandleSettingsPage(w http.ResponseWriter, r *http.Request) {
	page := settingsPage{
		Title:   "General Settings",
		Action:  generalSettingsPath,
		Updated: r.URL.Query().Get("settings-updated") == "true",
	}
	if s, ok := SessionFromContext(r.Context()); ok {
		page.User = s.Username
	}

	for _, f := range h.registry.Fields(domain.GeneralPage) {
		var buf bytes.Buffer
		if err := f.Render(r.Context(), &buf); err != nil {
			h.log.Error("render field", zap.String("field", f.ID), zap.Error(err))
			utility.HttpError(w, http.StatusInternalServerError, "failed to render settings")
			return
		}
		page.Fields = append(page.Fields, pageField{
			ID:    f.ID,
			Title: f.Title,
			HTML:  template.HTML(buf.String()),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := settingsTmpl.Execute(w, page); err != nil {
		h.log.Error("render settings page", zap.Error(err))
	}
}

// HandleSettingsSave sanitizes and stores every option registered on the
// general page. Options missing from the form are sanitized as empty.
func (h *Handler) HandleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utility.HttpError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	for _, option := range h.registry.Options(domain.GeneralPage) {
		input := r.PostForm.Get(option)
		if err := h.saveOption(r.Context(), option, input, h.registry.Sanitize(option, input)); err != nil {
			utility.HttpError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	http.Redirect(w, r, generalSettingsPath+"?settings-updated=true", http.StatusSeeOther)
}

func (h *Handler) HandleGetExpiration(w http.ResponseWriter, r *http.Request) {
	res, err := h.describeExpiration(r.Context())
	if err != nil {
		utility.HttpError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}
	utility.WriteJSON(w, http.StatusOK, res)
}

// HandlePutExpiration sets the lifetime directly. Any numeric value is
// accepted; anything else stores the default.
func (h *Handler) HandlePutExpiration(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpirationReq
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		utility.HttpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var input string
	switch v := req.Value.(type) {
	case string:
		input = v
	case json.Number:
		input = v.String()
	}
	value := settings.ValidateValue(req.Value)
	if err := h.saveOption(r.Context(), domain.ExpirationOption, input, value); err != nil {
		utility.HttpError(w, http.StatusInternalServerError, "failed to save setting")
		return
	}

	res, err := h.describeExpiration(r.Context())
	if err != nil {
		utility.HttpError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}
	utility.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) saveOption(ctx context.Context, option, input, value string) error {
	if value != input {
		metrics.SanitizerFallbacks.WithLabelValues(option).Inc()
		h.log.Debug("submission sanitized",
			zap.String("option", option), zap.String("stored", value))
	}
	if err := h.options.SetOption(ctx, option, value); err != nil {
		h.log.Error("save option", zap.String("option", option), zap.Error(err))
		return err
	}
	metrics.SettingsSaved.WithLabelValues(option).Inc()
	return nil
}

// describeExpiration reports the stored value and the lifetime a remembered
// login would get from it.
func (h *Handler) describeExpiration(ctx context.Context) (domain.ExpirationRes, error) {
	value, err := h.options.GetOption(ctx, domain.ExpirationOption)
	present := err == nil
	if err != nil && !errors.Is(err, domain.ErrOptionNotFound) {
		h.log.Error("read option", zap.Error(err))
		return domain.ExpirationRes{}, err
	}

	res := domain.ExpirationRes{
		Option:  domain.ExpirationOption,
		Value:   value,
		Seconds: expiration.Resolve(value, present, domain.RememberedLifetime),
	}
	if p, ok := settings.PresetFor(value); ok {
		res.Label = p.Label
	}
	return res, nil
}

func (h *Handler) checkCredentials(user, password string) bool {
	if h.admin.PasswordHash == "" || user == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(h.admin.User)) != 1 {
		return false
	}
	ok, err := utility.VerifyPassword(h.admin.PasswordHash, password)
	if err != nil {
		h.log.Error("verify admin password", zap.Error(err))
		return false
	}
	return ok
}
