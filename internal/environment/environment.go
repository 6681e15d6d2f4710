// Package environment builds the variable blocks installed into child
// processes.
//
// A nil *Environment means "inherit the current process environment". Any
// other value is an immutable, ordered set of NAME=VALUE pairs with unique
// names. Name comparison follows the host platform: case-insensitive on
// Windows, case-sensitive everywhere else.
package environment

import (
	"os"
	"sort"
	"strings"
)

// Environment is an immutable child environment block.
type Environment struct {
	vars  []string
	index map[string]int
	fold  bool
}

func newEnvironment(fold bool) *Environment {
	return &Environment{
		index: make(map[string]int),
		fold:  fold,
	}
}

func (e *Environment) key(name string) string {
	if e.fold {
		return strings.ToUpper(name)
	}
	return name
}

// set inserts or replaces a variable. Only used while an Environment is
// under construction.
func (e *Environment) set(name, value string) {
	entry := name + "=" + value
	k := e.key(name)
	if i, ok := e.index[k]; ok {
		e.vars[i] = entry
		return
	}
	e.index[k] = len(e.vars)
	e.vars = append(e.vars, entry)
}

// Inherit reports whether the block stands for the parent's environment.
func (e *Environment) Inherit() bool {
	return e == nil
}

// Len returns the number of variables in the block.
func (e *Environment) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Lookup returns the value of name and whether it is present.
func (e *Environment) Lookup(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	i, ok := e.index[e.key(name)]
	if !ok {
		return "", false
	}
	entry := e.vars[i]
	return entry[strings.IndexByte(entry, '=')+1:], true
}

// Names returns the variable names in sorted order.
func (e *Environment) Names() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.vars))
	for _, entry := range e.vars {
		names = append(names, entry[:strings.IndexByte(entry, '=')])
	}
	sort.Strings(names)
	return names
}

// Slice returns a copy of the block in NAME=VALUE form, suitable for
// exec.Cmd.Env. The nil Environment yields a nil slice, which makes the
// child inherit the parent's environment.
func (e *Environment) Slice() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.vars...)
}

// Map returns the block as a map keyed by variable name.
func (e *Environment) Map() map[string]string {
	if e == nil {
		return nil
	}
	out := make(map[string]string, len(e.vars))
	for _, entry := range e.vars {
		sep := strings.IndexByte(entry, '=')
		out[entry[:sep]] = entry[sep+1:]
	}
	return out
}

// Equal reports whether both blocks hold the same variables with the same
// values, ignoring order.
func (e *Environment) Equal(other *Environment) bool {
	if e == nil || other == nil {
		return e == nil && other == nil
	}
	if len(e.vars) != len(other.vars) {
		return false
	}
	for _, entry := range e.vars {
		sep := strings.IndexByte(entry, '=')
		value, ok := other.Lookup(entry[:sep])
		if !ok || value != entry[sep+1:] {
			return false
		}
	}
	return true
}

// FromList builds an Environment from NAME=VALUE entries such as those
// returned by os.Environ. Entries without a name are skipped; later
// duplicates win.
func FromList(entries []string) *Environment {
	env := newEnvironment(foldCase)
	for _, entry := range entries {
		sep := strings.IndexByte(entry, '=')
		if sep <= 0 {
			continue
		}
		env.set(entry[:sep], entry[sep+1:])
	}
	return env
}

// Current snapshots the environment of the running process.
func Current() *Environment {
	return FromList(os.Environ())
}
