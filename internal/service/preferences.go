package service

import (
	"net/url"

	"ainews/internal/models"
)

// PreferencesCookie is the cookie that mirrors a user's display settings.
const PreferencesCookie = "ainews_prefs"

// PreferenceSources are the places a client may have remembered settings,
// highest precedence first. Nil sources are skipped.
type PreferenceSources struct {
	Session *models.Preferences `json:"session,omitempty"`
	Local   *models.Preferences `json:"local,omitempty"`
	Cookie  *models.Preferences `json:"cookie,omitempty"`
	Profile *models.Preferences `json:"profile,omitempty"`
}

func validTheme(v string) bool {
	return v == models.ThemeLight || v == models.ThemeDark || v == models.ThemeSystem
}

func validViewMode(v string) bool {
	return v == models.ViewModeGrid || v == models.ViewModeList
}

func validPrefCategory(v string) bool {
	return v == models.CategoryAll || models.Category(v).Valid()
}

// ValidatePreferences rejects any set field holding an unknown value.
func ValidatePreferences(p models.Preferences) error {
	if p.Theme != "" && !validTheme(p.Theme) {
		return models.NewValidationError("Invalid theme")
	}
	if p.Category != "" && !validPrefCategory(p.Category) {
		return models.NewValidationError("Invalid category")
	}
	if p.ViewMode != "" && !validViewMode(p.ViewMode) {
		return models.NewValidationError("Invalid view mode")
	}
	return nil
}

// Reconcile picks each field from the highest-precedence source that holds
// a valid value for it, falling back to the defaults.
func Reconcile(src PreferenceSources) models.Preferences {
	ordered := []*models.Preferences{src.Session, src.Local, src.Cookie, src.Profile}
	out := models.DefaultPreferences()
	out.Theme = pick(ordered, func(p *models.Preferences) string { return p.Theme }, validTheme, out.Theme)
	out.Category = pick(ordered, func(p *models.Preferences) string { return p.Category }, validPrefCategory, out.Category)
	out.ViewMode = pick(ordered, func(p *models.Preferences) string { return p.ViewMode }, validViewMode, out.ViewMode)
	return out
}

func pick(sources []*models.Preferences, field func(*models.Preferences) string, valid func(string) bool, fallback string) string {
	for _, p := range sources {
		if p == nil {
			continue
		}
		if v := field(p); valid(v) {
			return v
		}
	}
	return fallback
}

// EncodePreferencesCookie renders prefs as a cookie value.
func EncodePreferencesCookie(p models.Preferences) string {
	v := url.Values{}
	v.Set("theme", p.Theme)
	v.Set("category", p.Category)
	v.Set("view_mode", p.ViewMode)
	return v.Encode()
}

// DecodePreferencesCookie parses a cookie value. Garbage yields nil so the
// cookie is ignored during reconciliation.
func DecodePreferencesCookie(raw string) *models.Preferences {
	if raw == "" {
		return nil
	}
	if unescaped, err := url.QueryUnescape(raw); err == nil {
		raw = unescaped
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return nil
	}
	p := &models.Preferences{
		Theme:    v.Get("theme"),
		Category: v.Get("category"),
		ViewMode: v.Get("view_mode"),
	}
	if *p == (models.Preferences{}) {
		return nil
	}
	return p
}
