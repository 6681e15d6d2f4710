package environment

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// KeepVar names the variable whose ;-separated value extends the
// allow-list. Entries may be glob patterns such as MYTOOL_*.
const KeepVar = "PROCWARDEN_KEEP_ENV_VARS"

// Builder assembles child environments from the allow-listed subset of the
// current process environment plus caller overrides.
type Builder struct {
	// Lookup reads a variable from the current process.
	Lookup func(string) (string, bool)
	// Environ lists the current process environment; used to expand glob
	// entries of the keep list.
	Environ func() []string
	// AllowList holds the names inherited from the current process.
	AllowList []string
	// Keep holds extra names or glob patterns to inherit, on top of
	// AllowList and the KeepVar override.
	Keep []string
	// SystemPath is appended after the caller's prefix in PATH.
	SystemPath []string
	// Pinned variables are always set, after PATH.
	Pinned map[string]string
	// PathVar is the name under which the search path is emitted.
	PathVar string
	// ListSeparator separates PATH entries.
	ListSeparator string
	// FoldCase makes variable names case-insensitive.
	FoldCase bool
}

// NewBuilder returns a Builder configured for the host platform.
func NewBuilder() *Builder {
	return &Builder{
		Lookup:        os.LookupEnv,
		Environ:       os.Environ,
		AllowList:     defaultAllowList(),
		SystemPath:    systemPath(),
		Pinned:        pinnedVars(),
		PathVar:       pathVar,
		ListSeparator: string(os.PathListSeparator),
		FoldCase:      foldCase,
	}
}

// Build produces an environment holding the non-empty allow-listed
// variables of the current process, the synthesized search path and every
// entry of extra. A PATH entry in extra is appended to the search path
// instead of replacing it.
func (b *Builder) Build(extra map[string]string, pathPrefix string) *Environment {
	env := newEnvironment(b.FoldCase)

	for _, name := range b.inherited() {
		value, ok := b.Lookup(name)
		if !ok || value == "" {
			continue
		}
		env.set(name, value)
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	path := b.searchPath(pathPrefix)
	overrides := names[:0]
	for _, name := range names {
		if b.isPathVar(name) {
			path += b.ListSeparator + extra[name]
			continue
		}
		overrides = append(overrides, name)
	}
	env.set(b.PathVar, path)

	pinned := make([]string, 0, len(b.Pinned))
	for name := range b.Pinned {
		pinned = append(pinned, name)
	}
	sort.Strings(pinned)
	for _, name := range pinned {
		env.set(name, b.Pinned[name])
	}

	for _, name := range overrides {
		env.set(name, extra[name])
	}
	return env
}

func (b *Builder) isPathVar(name string) bool {
	if b.FoldCase {
		return strings.EqualFold(name, b.PathVar)
	}
	return name == b.PathVar
}

func (b *Builder) searchPath(prefix string) string {
	system := strings.Join(b.SystemPath, b.ListSeparator)
	switch {
	case prefix == "":
		return system
	case system == "", strings.HasSuffix(prefix, b.ListSeparator):
		return prefix + system
	default:
		return prefix + b.ListSeparator + system
	}
}

// inherited resolves the allow-list, the configured keep list and the
// KeepVar override into concrete variable names.
func (b *Builder) inherited() []string {
	entries := append([]string(nil), b.AllowList...)
	entries = append(entries, b.Keep...)
	if raw, ok := b.Lookup(KeepVar); ok && raw != "" {
		entries = append(entries, strings.Split(raw, ";")...)
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	add := func(name string) {
		k := name
		if b.FoldCase {
			k = strings.ToUpper(name)
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		names = append(names, name)
	}

	var patterns []glob.Glob
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !IsPattern(entry) {
			add(entry)
			continue
		}
		if b.FoldCase {
			entry = strings.ToUpper(entry)
		}
		g, err := glob.Compile(entry)
		if err != nil {
			continue
		}
		patterns = append(patterns, g)
	}

	if len(patterns) > 0 && b.Environ != nil {
		for _, kv := range b.Environ() {
			sep := strings.IndexByte(kv, '=')
			// Windows keeps per-drive cwd entries such as "=C:" in the block.
			if sep <= 0 {
				continue
			}
			name := kv[:sep]
			candidate := name
			if b.FoldCase {
				candidate = strings.ToUpper(name)
			}
			for _, g := range patterns {
				if g.Match(candidate) {
					add(name)
					break
				}
			}
		}
	}
	return names
}

// IsPattern reports whether a keep entry uses glob syntax.
func IsPattern(entry string) bool {
	return strings.ContainsAny(entry, "*?[{")
}

// ValidatePattern checks that a keep entry compiles.
func ValidatePattern(entry string) error {
	if !IsPattern(entry) {
		return nil
	}
	_, err := glob.Compile(entry)
	return err
}

var clean = sync.OnceValue(func() *Environment {
	return NewBuilder().Build(nil, "")
})

// Clean returns the process-wide baseline environment: no extra variables
// and no path prefix. It is built on first use and shared afterwards;
// callers must treat it as read-only.
func Clean() *Environment {
	return clean()
}
