// Package preset loads effect-chain configuration files.
//
// The format is line-oriented: an `[effect]` header opens a section, `key = value`
// lines fill it, and a trailing backslash continues a value onto the next line.
// Lines whose first non-blank character is '#' or ';' are comments. Keys before
// the first header are global. Files written by legacy Windows tools are decoded
// as Windows-1252 when the bytes are not valid UTF-8.
package preset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/veskel/phosphene/pkg/params"
)

// Section is one [effect] block. Name is the lowercased header text; the same
// name may appear more than once (the chain then contains the effect twice).
type Section struct {
	Name   string
	Params *params.Store
}

// File is a parsed preset file. Sections keep file order, which is the
// effect-chain order.
type File struct {
	Global   *params.Store
	Sections []Section
}

// Section returns the first section with the given (lowercased) name, or nil.
func (f *File) Section(name string) *params.Store {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return f.Sections[i].Params
		}
	}
	return nil
}

// Load reads and parses a preset file from disk.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	f, err := Parse(decodeText(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses preset text that has already been decoded to UTF-8.
func Parse(src string) (*File, error) {
	f := &File{Global: params.NewStore()}
	target := f.Global

	raw := strings.Split(src, "\n")
	for i := 0; i < len(raw); i++ {
		lineNo := i + 1
		line := strings.TrimRight(raw[i], " \t\r")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == ';' {
			continue
		}

		// Join continuation lines before classifying. The joined value is
		// whitespace-separated, which the expression lexer ignores.
		for strings.HasSuffix(line, "\\") && i+1 < len(raw) {
			i++
			line = strings.TrimRight(strings.TrimSuffix(line, "\\"), " \t") + " " +
				strings.TrimSpace(strings.TrimRight(raw[i], " \t\r"))
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, "\\"))
		if line == "" {
			continue
		}

		if line[0] == '[' {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: unclosed section header", lineNo)
			}
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if name == "" {
				return nil, fmt.Errorf("line %d: empty section name", lineNo)
			}
			f.Sections = append(f.Sections, Section{Name: name, Params: params.NewStore()})
			target = f.Sections[len(f.Sections)-1].Params
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, fmt.Errorf("line %d: expected key = value", lineNo)
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNo)
		}
		storeValue(target, key, strings.TrimSpace(line[eq+1:]))
	}

	return f, nil
}

// storeValue infers the value type. Quoting forces string, so an expression
// that happens to look numeric survives (`expr = "3"`).
func storeValue(ps *params.Store, key, val string) {
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		ps.SetString(key, val[1:len(val)-1])
		return
	}
	switch strings.ToLower(val) {
	case "true", "on", "yes":
		ps.SetBool(key, true)
		return
	case "false", "off", "no":
		ps.SetBool(key, false)
		return
	}
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		ps.SetInt(key, int(n))
		return
	}
	if fv, err := strconv.ParseFloat(val, 64); err == nil {
		ps.SetFloat(key, fv)
		return
	}
	ps.SetString(key, val)
}

// decodeText converts raw preset bytes to UTF-8, falling back to Windows-1252
// for legacy files.
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw)
	}
	reader := transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
