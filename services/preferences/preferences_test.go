package preferences_test

import (
	"errors"
	"testing"

	"simplstream/internal/storage"
	"simplstream/models"
	"simplstream/services/preferences"
)

func TestThemeDefaultsToSystem(t *testing.T) {
	svc := preferences.NewService(storage.NewMemory())
	theme, err := svc.Theme()
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	if theme != preferences.ThemeSystem {
		t.Fatalf("expected system theme, got %q", theme)
	}
}

func TestSetThemeStoresRawString(t *testing.T) {
	store := storage.NewMemory()
	svc := preferences.NewService(store)

	if err := svc.SetTheme(preferences.ThemeDark); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	raw, _, _ := store.Get(storage.KeyTheme)
	if raw != "dark" {
		t.Fatalf("expected raw value dark, got %q", raw)
	}

	if err := svc.SetTheme("sepia"); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnknownStoredThemeFallsBack(t *testing.T) {
	store := storage.NewMemory()
	_ = store.Set(storage.KeyTheme, "sepia")
	svc := preferences.NewService(store)
	if theme, _ := svc.Theme(); theme != preferences.ThemeSystem {
		t.Fatalf("expected fallback to system, got %q", theme)
	}
}

func TestEffectiveTheme(t *testing.T) {
	svc := preferences.NewService(storage.NewMemory())
	if theme, _ := svc.EffectiveTheme(true); theme != preferences.ThemeDark {
		t.Fatalf("expected dark from system, got %q", theme)
	}
	_ = svc.SetTheme(preferences.ThemeLight)
	if theme, _ := svc.EffectiveTheme(true); theme != preferences.ThemeLight {
		t.Fatalf("explicit theme wins, got %q", theme)
	}
}

func TestPreferredServer(t *testing.T) {
	svc := preferences.NewService(storage.NewMemory())
	if _, ok, _ := svc.PreferredServer(); ok {
		t.Fatalf("expected no preferred server")
	}
	if err := svc.SetPreferredServer("vidsrc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	key, ok, err := svc.PreferredServer()
	if err != nil || !ok || key != "vidsrc" {
		t.Fatalf("unexpected preferred server %q ok=%t err=%v", key, ok, err)
	}
}
