// Package prefs persists the light/dark choice and applies it to a document.
package prefs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/rhomel/hbtheme/internal/document"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
)

// Key is the storage key for the chosen mode.
const Key = "theme"

// DarkClass is the root class that marks dark mode.
const DarkClass = "dark"

// Mode is the stored color mode.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// ParseMode accepts "dark" or "light", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDark:
		return ModeDark, nil
	case ModeLight:
		return ModeLight, nil
	}
	return "", apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("unknown mode %q (want dark or light)", s), nil)
}

// Store is durable key/value storage for preferences.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Initial decides the starting mode: a stored "dark" wins, any other stored
// value means light, and with nothing stored prefersDark decides.
func Initial(ctx context.Context, store Store, prefersDark func() bool) (Mode, error) {
	saved, ok, err := store.Get(ctx, Key)
	if err != nil {
		return "", err
	}
	if ok && saved != "" {
		if saved == string(ModeDark) {
			return ModeDark, nil
		}
		return ModeLight, nil
	}
	if prefersDark != nil && prefersDark() {
		return ModeDark, nil
	}
	return ModeLight, nil
}

// Apply sets the document's root class to match mode.
func Apply(doc *document.Document, mode Mode) {
	if mode == ModeDark {
		doc.Root.Add(DarkClass)
		return
	}
	doc.Root.Remove(DarkClass)
}

// Toggle flips the document's mode and persists the result.
func Toggle(ctx context.Context, store Store, doc *document.Document) (Mode, error) {
	mode := ModeLight
	if doc.Root.Toggle(DarkClass) {
		mode = ModeDark
	}
	if err := store.Set(ctx, Key, string(mode)); err != nil {
		return mode, err
	}
	return mode, nil
}

// Save applies mode to doc and persists it.
func Save(ctx context.Context, store Store, doc *document.Document, mode Mode) error {
	Apply(doc, mode)
	return store.Set(ctx, Key, string(mode))
}

// PrefersDark returns the system dark-mode signal for a setting of "auto",
// "true" or "false". "auto" asks the terminal for its background color.
func PrefersDark(setting string) (func() bool, error) {
	setting = strings.ToLower(strings.TrimSpace(setting))
	if setting == "" || setting == "auto" {
		return termenv.HasDarkBackground, nil
	}
	fixed, err := strconv.ParseBool(setting)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("prefers-dark must be auto, true or false, got %q", setting), err)
	}
	return func() bool { return fixed }, nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
