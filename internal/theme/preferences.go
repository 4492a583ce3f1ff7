package theme

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/miradorstack/meterd/internal/models"
	"github.com/miradorstack/meterd/internal/store"
)

// PreferenceKey is the persistence key for the explicit theme choice.
const PreferenceKey = "meterui-theme-preference"

const storeTimeout = 2 * time.Second

// Preferences tracks the light/dark choice. A stored preference always wins;
// without one the ambient system preference decides and may change at runtime.
type Preferences struct {
	provider store.Provider
	logger   *slog.Logger

	mu       sync.Mutex
	dark     bool
	explicit bool
}

// NewPreferences loads the stored preference, falling back to systemDark.
func NewPreferences(ctx context.Context, provider store.Provider, systemDark bool, logger *slog.Logger) *Preferences {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Preferences{provider: provider, logger: logger, dark: systemDark}

	if stored, ok := p.stored(ctx); ok {
		p.dark = stored == string(models.ThemeDark)
		p.explicit = true
	}
	return p
}

// State returns the active mode.
func (p *Preferences) State() models.ThemeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

// Toggle flips the mode and persists it as an explicit preference.
func (p *Preferences) Toggle(ctx context.Context) models.ThemeState {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dark = !p.dark
	p.explicit = true
	state := p.stateLocked()

	if p.provider != nil {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if err := p.provider.Set(ctx, PreferenceKey, string(state.Mode)); err != nil {
			p.logger.Warn("persist theme preference failed", slog.Any("error", err))
		}
	}
	return state
}

// SetSystemPreference reports a change of the ambient colour scheme. It only
// takes effect while no explicit preference has been stored.
func (p *Preferences) SetSystemPreference(ctx context.Context, dark bool) models.ThemeState {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.stored(ctx); !ok {
		p.dark = dark
		p.explicit = false
	}
	return p.stateLocked()
}

func (p *Preferences) stateLocked() models.ThemeState {
	mode := models.ThemeLight
	if p.dark {
		mode = models.ThemeDark
	}
	return models.ThemeState{Mode: mode, Explicit: p.explicit}
}

// stored returns the persisted preference. Empty values count as unset.
func (p *Preferences) stored(ctx context.Context) (string, bool) {
	if p.provider == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	value, err := p.provider.Get(ctx, PreferenceKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("read theme preference failed", slog.Any("error", err))
		}
		return "", false
	}
	return value, value != ""
}
