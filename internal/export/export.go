// Package export writes a resolved sheet in a machine-readable format.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rhomel/hbtheme/internal/cssvars"
	apperrors "github.com/rhomel/hbtheme/internal/errors"
)

// Format names an output encoding.
type Format string

const (
	FormatCSS  Format = "css"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatCSS, FormatJSON, FormatTOML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("unknown format %q (want css, json or toml)", s), nil)
}

// Entry is one declared variable.
type Entry struct {
	Name  string `json:"name" toml:"name"`
	Value string `json:"value" toml:"value"`
}

// Document is the structured form of a sheet. Order follows the emitted CSS.
type Document struct {
	Mode  string  `json:"mode" toml:"mode"`
	Base  []Entry `json:"base" toml:"base"`
	Theme []Entry `json:"theme" toml:"theme"`
}

// FromSheet converts a sheet to its structured form.
func FromSheet(sheet cssvars.Sheet) Document {
	mode := "light"
	if sheet.Dark {
		mode = "dark"
	}
	return Document{
		Mode:  mode,
		Base:  entries(sheet.ResolvedBase),
		Theme: entries(sheet.Theme),
	}
}

func entries(vars *cssvars.Vars) []Entry {
	out := make([]Entry, 0, vars.Len())
	vars.Each(func(name, value string) {
		out = append(out, Entry{Name: name, Value: value})
	})
	return out
}

// Write encodes sheet to w in the given format.
func Write(w io.Writer, sheet cssvars.Sheet, format Format) error {
	switch format {
	case FormatCSS:
		_, err := io.WriteString(w, sheet.CSS+"\n")
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(FromSheet(sheet))
	case FormatTOML:
		return toml.NewEncoder(w).Encode(FromSheet(sheet))
	}
	return apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("unknown format %q", format), nil)
}
