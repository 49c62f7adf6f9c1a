package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Builtins is the registry of dynamic placeholder values, keyed by name.
// Captures take precedence over builtins at render time, so a capture named
// like a builtin shadows it for that definition.
type Builtins map[string]func() string

// Default returns the standard builtin set.
func Default() Builtins {
	return Builtins{
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"timestamp": func() string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
		"timestamp.unix": func() string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
		"timestamp.unix_ms": func() string {
			return strconv.FormatInt(time.Now().UnixMilli(), 10)
		},
		"uuid": func() string {
			return uuid.New().String()
		},
		"uuid.short": func() string {
			return strings.SplitN(uuid.New().String(), "-", 2)[0]
		},
	}
}

// Has reports whether a builtin with the given name is registered.
func (b Builtins) Has(name string) bool {
	_, ok := b[name]
	return ok
}

// Register adds or replaces a builtin value.
func (b Builtins) Register(name string, fn func() string) {
	b[name] = fn
}
