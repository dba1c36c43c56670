package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rhomel/hbtheme/internal/document"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
)

func TestInitialTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stored      string
		hasStored   bool
		prefersDark bool
		want        Mode
	}{
		{name: "stored dark", stored: "dark", hasStored: true, want: ModeDark},
		{name: "stored light beats system dark", stored: "light", hasStored: true, prefersDark: true, want: ModeLight},
		{name: "stored garbage is light", stored: "sepia", hasStored: true, prefersDark: true, want: ModeLight},
		{name: "nothing stored, system dark", prefersDark: true, want: ModeDark},
		{name: "nothing stored, system light", want: ModeLight},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewMemoryStore()
			if tt.hasStored {
				_ = store.Set(context.Background(), Key, tt.stored)
			}
			got, err := Initial(context.Background(), store, func() bool { return tt.prefersDark })
			if err != nil {
				t.Fatalf("Initial() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Initial() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToggleFlipsAndPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	doc := document.New()
	changes := 0
	doc.Root.Observe(func() { changes++ })

	mode, err := Toggle(ctx, store, doc)
	if err != nil || mode != ModeDark || !doc.IsDark() {
		t.Fatalf("first Toggle() = %q, %v (dark=%t)", mode, err, doc.IsDark())
	}
	if v, _, _ := store.Get(ctx, Key); v != "dark" {
		t.Fatalf("stored %q, want dark", v)
	}

	mode, _ = Toggle(ctx, store, doc)
	if mode != ModeLight || doc.IsDark() {
		t.Fatalf("second Toggle() = %q (dark=%t)", mode, doc.IsDark())
	}
	if v, _, _ := store.Get(ctx, Key); v != "light" {
		t.Fatalf("stored %q, want light", v)
	}
	if changes != 2 {
		t.Fatalf("class changes = %d, want 2", changes)
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	if m, err := ParseMode(" Dark "); err != nil || m != ModeDark {
		t.Fatalf("ParseMode(Dark) = %q, %v", m, err)
	}
	if _, err := ParseMode("sepia"); !apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		t.Fatalf("ParseMode(sepia) = %v, want configuration_error", err)
	}
}

func TestPrefersDarkFixed(t *testing.T) {
	t.Parallel()

	fn, err := PrefersDark("true")
	if err != nil || !fn() {
		t.Fatalf("PrefersDark(true) = %v", err)
	}
	fn, err = PrefersDark("FALSE")
	if err != nil || fn() {
		t.Fatalf("PrefersDark(FALSE) = %v", err)
	}
	if _, err := PrefersDark("sometimes"); !apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		t.Fatalf("PrefersDark(sometimes) = %v, want configuration_error", err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "prefs.db")

	store, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() unexpected error: %v", err)
	}
	if _, ok, err := store.Get(ctx, Key); err != nil || ok {
		t.Fatalf("Get() on empty store = ok=%t err=%v", ok, err)
	}
	if err := store.Set(ctx, Key, "dark"); err != nil {
		t.Fatalf("Set() unexpected error: %v", err)
	}
	if err := store.Set(ctx, Key, "light"); err != nil {
		t.Fatalf("Set() overwrite unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	reopened, err := OpenSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.Get(ctx, Key)
	if err != nil || !ok || v != "light" {
		t.Fatalf("Get() after reopen = %q, %t, %v", v, ok, err)
	}
}

func TestOpenSQLiteStoreEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLiteStore(context.Background(), "  ")
	if !apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		t.Fatalf("expected configuration_error, got %v", err)
	}
}
