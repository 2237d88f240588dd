package service

import (
	"context"
	"strings"
	"testing"

	"ainews/internal/models"
	"ainews/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prefs(theme, category, viewMode string) *models.Preferences {
	return &models.Preferences{Theme: theme, Category: category, ViewMode: viewMode}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name string
		src  PreferenceSources
		want models.Preferences
	}{
		{
			name: "nothing stored uses defaults",
			want: models.DefaultPreferences(),
		},
		{
			name: "session wins over everything",
			src: PreferenceSources{
				Session: prefs("dark", "news", "list"),
				Local:   prefs("light", "materials", "grid"),
				Cookie:  prefs("light", "materials", "grid"),
				Profile: prefs("light", "materials", "grid"),
			},
			want: models.Preferences{Theme: "dark", Category: "news", ViewMode: "list"},
		},
		{
			name: "fields resolve independently",
			src: PreferenceSources{
				Session: prefs("dark", "", ""),
				Local:   prefs("", "project-ideas", ""),
				Cookie:  prefs("", "", "list"),
			},
			want: models.Preferences{Theme: "dark", Category: "project-ideas", ViewMode: "list"},
		},
		{
			name: "invalid values fall through",
			src: PreferenceSources{
				Session: prefs("neon", "gossip", "cards"),
				Cookie:  prefs("light", "", ""),
				Profile: prefs("dark", "discussions", "list"),
			},
			want: models.Preferences{Theme: "light", Category: "discussions", ViewMode: "list"},
		},
		{
			name: "profile is the last resort",
			src:  PreferenceSources{Profile: prefs("", "all", "list")},
			want: models.Preferences{Theme: "system", Category: "all", ViewMode: "list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(tt.src))
		})
	}
}

func TestPreferencesCookie(t *testing.T) {
	p := models.Preferences{Theme: "dark", Category: "project-ideas", ViewMode: "list"}
	decoded := DecodePreferencesCookie(EncodePreferencesCookie(p))
	require.NotNil(t, decoded)
	assert.Equal(t, p, *decoded)

	assert.Nil(t, DecodePreferencesCookie(""))
	assert.Nil(t, DecodePreferencesCookie("garbage"))
	escaped := DecodePreferencesCookie("theme%3Ddark")
	require.NotNil(t, escaped)
	assert.Equal(t, "dark", escaped.Theme)
}

func TestUpdateProfile(t *testing.T) {
	stores := newStores(t)
	svc := NewProfileService(stores.Profiles)
	ctx := context.Background()
	me := repotest.MustProfile(t, stores, "gopher", models.RoleStudent)
	repotest.MustProfile(t, stores, "taken", models.RoleStudent)

	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{
		UserID:   me.ID,
		Bio:      ptr("I write Go"),
		Website:  ptr(" https://gopher.dev "),
		Location: ptr("Berlin"),
		Social:   &models.SocialLinks{Github: "gopher"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I write Go", updated.Bio)
	assert.Equal(t, "https://gopher.dev", updated.Website)
	assert.Equal(t, "gopher", updated.Social.Github)
	assert.Equal(t, "gopher", updated.Username, "nil fields are kept")

	got, err := svc.GetProfile(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got.Location)

	cleared, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: me.ID, Website: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Website)

	tests := []struct {
		name string
		in   UpdateProfileInput
		code string
	}{
		{"bad website", UpdateProfileInput{Website: ptr("javascript:alert(1)")}, models.CodeValidation},
		{"bad username", UpdateProfileInput{Username: ptr("a")}, models.CodeValidation},
		{"bad email", UpdateProfileInput{Email: ptr("nope")}, models.CodeValidation},
		{"long bio", UpdateProfileInput{Bio: ptr(strings.Repeat("b", 501))}, models.CodeValidation},
		{"bad social", UpdateProfileInput{Social: &models.SocialLinks{Twitter: "two words"}}, models.CodeValidation},
		{"username taken", UpdateProfileInput{Username: ptr("taken")}, models.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = me.ID
			_, err := svc.UpdateProfile(ctx, tt.in)
			assertCode(t, err, tt.code)
		})
	}

	_, err = svc.GetProfile(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestSetRole(t *testing.T) {
	stores := newStores(t)
	svc := NewProfileService(stores.Profiles)
	ctx := context.Background()
	admin := repotest.MustProfile(t, stores, "admin", models.RoleAdmin)
	teacher := repotest.MustProfile(t, stores, "teacher", models.RoleTeacher)
	student := repotest.MustProfile(t, stores, "student", models.RoleStudent)

	_, err := svc.SetRole(ctx, teacher.ID, student.ID, models.RoleTeacher)
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.SetRole(ctx, admin.ID, student.ID, "overlord")
	assertCode(t, err, models.CodeValidation)

	_, err = svc.SetRole(ctx, admin.ID, 999, models.RoleTeacher)
	assertCode(t, err, models.CodeNotFound)

	promoted, err := svc.SetRole(ctx, admin.ID, student.ID, models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, promoted.Role)

	teachers, err := svc.ListProfiles(ctx, models.RoleTeacher)
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
}

func TestPreferences_UpdateAndReconcile(t *testing.T) {
	stores := newStores(t)
	svc := NewProfileService(stores.Profiles)
	ctx := context.Background()
	me := repotest.MustProfile(t, stores, "gopher", models.RoleStudent)

	_, err := svc.UpdatePreferences(ctx, me.ID, models.Preferences{Theme: "dark"})
	assertCode(t, err, models.CodeValidation)
	_, err = svc.UpdatePreferences(ctx, me.ID, *prefs("dark", "gossip", "grid"))
	assertCode(t, err, models.CodeValidation)

	saved, err := svc.UpdatePreferences(ctx, me.ID, *prefs("dark", "news", "list"))
	require.NoError(t, err)
	assert.Equal(t, *prefs("dark", "news", "list"), saved)

	resolved, err := svc.ReconcilePreferences(ctx, me.ID, PreferenceSources{
		Local:  prefs("light", "", ""),
		Cookie: prefs("", "materials", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, *prefs("light", "materials", "list"), resolved)

	stored, err := stores.Profiles.GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, resolved, stored.Preferences)
}
