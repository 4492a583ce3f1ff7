package theme

import (
	"context"
	"testing"

	"github.com/miradorstack/meterd/internal/models"
	"github.com/miradorstack/meterd/internal/store"
)

func TestNewPreferencesFallsBackToSystem(t *testing.T) {
	p := NewPreferences(context.Background(), store.NewMemoryProvider(), true, nil)
	state := p.State()
	if state.Mode != models.ThemeDark || state.Explicit {
		t.Fatalf("expected implicit dark mode, got %+v", state)
	}
}

func TestNewPreferencesUsesStoredValue(t *testing.T) {
	tests := []struct {
		stored string
		want   models.ThemeMode
	}{
		{stored: "dark", want: models.ThemeDark},
		{stored: "light", want: models.ThemeLight},
		{stored: "sepia", want: models.ThemeLight},
	}
	for _, tc := range tests {
		provider := store.NewMemoryProvider()
		_ = provider.Set(context.Background(), PreferenceKey, tc.stored)

		p := NewPreferences(context.Background(), provider, true, nil)
		if got := p.State(); got.Mode != tc.want || !got.Explicit {
			t.Fatalf("stored %q: expected explicit %s, got %+v", tc.stored, tc.want, got)
		}
	}
}

func TestTogglePersists(t *testing.T) {
	ctx := context.Background()
	provider := store.NewMemoryProvider()
	p := NewPreferences(ctx, provider, false, nil)

	if got := p.Toggle(ctx); got.Mode != models.ThemeDark {
		t.Fatalf("expected dark after toggle, got %+v", got)
	}
	stored, err := provider.Get(ctx, PreferenceKey)
	if err != nil || stored != "dark" {
		t.Fatalf("expected stored dark, got %q err=%v", stored, err)
	}

	p.Toggle(ctx)
	if stored, _ := provider.Get(ctx, PreferenceKey); stored != "light" {
		t.Fatalf("expected stored light, got %q", stored)
	}

	reloaded := NewPreferences(ctx, provider, true, nil)
	if reloaded.State().Mode != models.ThemeLight {
		t.Fatalf("stored preference should override system dark")
	}
}

func TestSystemPreferenceOnlyAppliesWhileUnset(t *testing.T) {
	ctx := context.Background()
	p := NewPreferences(ctx, store.NewMemoryProvider(), false, nil)

	if got := p.SetSystemPreference(ctx, true); got.Mode != models.ThemeDark {
		t.Fatalf("system change should apply while unset, got %+v", got)
	}

	p.Toggle(ctx)
	if got := p.SetSystemPreference(ctx, true); got.Mode != models.ThemeLight || !got.Explicit {
		t.Fatalf("system change must be ignored once a preference is stored, got %+v", got)
	}
}
