package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Paintersrp/procwarden/internal/environment"
)

// Warnings reports settings that are valid but probably not what the
// author meant. environ is the current process environment in NAME=VALUE
// form; nil means os.Environ().
func (f *File) Warnings(environ []string) []string {
	if environ == nil {
		environ = os.Environ()
	}
	b := f.Builder()
	names := environNames(environ, b.FoldCase)

	var warnings []string
	allowed := make(map[string]struct{}, len(b.AllowList))
	for _, name := range b.AllowList {
		allowed[normalizeName(name, b.FoldCase)] = struct{}{}
	}
	seen := make(map[string]struct{}, len(f.Environment.Keep))
	for _, entry := range f.Environment.Keep {
		key := normalizeName(entry, b.FoldCase)
		if _, dup := seen[key]; dup {
			warnings = append(warnings, fmt.Sprintf("%s: %q is listed more than once", fieldPath("environment", "keep"), entry))
			continue
		}
		seen[key] = struct{}{}
		if _, ok := allowed[key]; ok {
			warnings = append(warnings, fmt.Sprintf("%s: %q is already inherited by default", fieldPath("environment", "keep"), entry))
			continue
		}
		if !matchesAny(entry, names, b.FoldCase) {
			warnings = append(warnings, fmt.Sprintf("%s: %q matches no variable in the current environment", fieldPath("environment", "keep"), entry))
		}
	}

	if f.Environment.Inherit {
		if f.Environment.EnvFile != "" {
			warnings = append(warnings, fmt.Sprintf("%s: ignored because environment.inherit is set", fieldPath("environment", "env_file")))
		}
		if len(f.Environment.Keep) > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: ignored because environment.inherit is set", fieldPath("environment", "keep")))
		}
	}
	for name := range f.Environment.Vars {
		if strings.EqualFold(name, "PATH") {
			warnings = append(warnings, fmt.Sprintf("%s: %s is appended to the synthesized search path, not substituted", fieldPath("environment", "vars"), name))
		}
	}
	sort.Strings(warnings)
	return warnings
}

func environNames(environ []string, fold bool) []string {
	names := make([]string, 0, len(environ))
	for _, kv := range environ {
		sep := strings.IndexByte(kv, '=')
		if sep <= 0 {
			continue
		}
		names = append(names, normalizeName(kv[:sep], fold))
	}
	return names
}

func matchesAny(entry string, names []string, fold bool) bool {
	entry = normalizeName(entry, fold)
	if !environment.IsPattern(entry) {
		for _, name := range names {
			if name == entry {
				return true
			}
		}
		return false
	}
	g, err := glob.Compile(entry)
	if err != nil {
		return false
	}
	for _, name := range names {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func normalizeName(name string, fold bool) string {
	name = strings.TrimSpace(name)
	if fold {
		return strings.ToUpper(name)
	}
	return name
}
