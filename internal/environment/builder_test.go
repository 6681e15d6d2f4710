package environment

import (
	"reflect"
	"strings"
	"testing"
)

func fakeBuilder(vars map[string]string) *Builder {
	return &Builder{
		Lookup: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		AllowList:     []string{"HOME", "LANG", "http_proxy", "CUDA_PATH"},
		SystemPath:    []string{"/usr/bin", "/bin"},
		PathVar:       "PATH",
		ListSeparator: ":",
	}
}

func TestBuildKeepsOnlyAllowListedVariables(t *testing.T) {
	b := fakeBuilder(map[string]string{
		"HOME":       "/home/dev",
		"LANG":       "",
		"http_proxy": "http://proxy:3128",
		"SECRET":     "hunter2",
		"PATH":       "/opt/leaky/bin",
	})

	env := b.Build(map[string]string{"CC": "clang"}, "")

	want := []string{"CC", "HOME", "PATH", "http_proxy"}
	if got := env.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}
	if _, ok := env.Lookup("SECRET"); ok {
		t.Fatalf("expected SECRET to be dropped")
	}
	if path, _ := env.Lookup("PATH"); path != "/usr/bin:/bin" {
		t.Fatalf("expected synthesized PATH, got %q", path)
	}
}

func TestBuildSearchPath(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		extra  map[string]string
		want   string
	}{
		{name: "system only", want: "/usr/bin:/bin"},
		{name: "prefix", prefix: "/opt/tool/bin", want: "/opt/tool/bin:/usr/bin:/bin"},
		{name: "prefix with separator", prefix: "/opt/tool/bin:", want: "/opt/tool/bin:/usr/bin:/bin"},
		{name: "override appended", extra: map[string]string{"PATH": "/extra"}, want: "/usr/bin:/bin:/extra"},
		{
			name:   "prefix and override",
			prefix: "/first",
			extra:  map[string]string{"PATH": "/last"},
			want:   "/first:/usr/bin:/bin:/last",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := fakeBuilder(nil).Build(tt.extra, tt.prefix)
			got, ok := env.Lookup("PATH")
			if !ok {
				t.Fatalf("expected PATH to be set")
			}
			if got != tt.want {
				t.Fatalf("expected PATH %q, got %q", tt.want, got)
			}
			if env.Len() != 1 {
				t.Fatalf("expected only PATH in block, got %v", env.Names())
			}
		})
	}
}

func TestBuildExtraOverridesBase(t *testing.T) {
	b := fakeBuilder(map[string]string{"HOME": "/home/dev"})

	env := b.Build(map[string]string{"HOME": "/sandbox"}, "")

	if home, _ := env.Lookup("HOME"); home != "/sandbox" {
		t.Fatalf("expected extra HOME to win, got %q", home)
	}
	count := 0
	for _, kv := range env.Slice() {
		if strings.HasPrefix(kv, "HOME=") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected HOME once, found %d entries in %v", count, env.Slice())
	}
}

func TestBuildKeepVarExtendsAllowList(t *testing.T) {
	b := fakeBuilder(map[string]string{
		KeepVar:        "MY_TOKEN; TOOL_*",
		"MY_TOKEN":     "abc",
		"TOOL_ROOT":    "/opt/tool",
		"TOOL_VERSION": "3",
		"OTHER":        "x",
	})

	env := b.Build(nil, "")

	want := []string{"MY_TOKEN", "PATH", "TOOL_ROOT", "TOOL_VERSION"}
	if got := env.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}
}

func TestBuildConfiguredKeepList(t *testing.T) {
	b := fakeBuilder(map[string]string{"VCPKG_ROOT": "/src/vcpkg"})
	b.Keep = []string{"VCPKG_*"}

	env := b.Build(nil, "")

	if v, ok := env.Lookup("VCPKG_ROOT"); !ok || v != "/src/vcpkg" {
		t.Fatalf("expected VCPKG_ROOT to be kept, got %q (present=%v)", v, ok)
	}
}

func TestBuildPinnedVariables(t *testing.T) {
	b := fakeBuilder(nil)
	b.Pinned = map[string]string{"VSLANG": "1033"}

	env := b.Build(nil, "")
	if v, _ := env.Lookup("VSLANG"); v != "1033" {
		t.Fatalf("expected pinned VSLANG, got %q", v)
	}

	env = b.Build(map[string]string{"VSLANG": "1031"}, "")
	if v, _ := env.Lookup("VSLANG"); v != "1031" {
		t.Fatalf("expected caller override of VSLANG, got %q", v)
	}
}

func TestBuildFoldCase(t *testing.T) {
	b := fakeBuilder(map[string]string{"SystemRoot": `C:\Windows`})
	b.AllowList = []string{"SystemRoot", "SYSTEMROOT"}
	b.PathVar = "Path"
	b.ListSeparator = ";"
	b.SystemPath = []string{`C:\Windows\system32`}
	b.FoldCase = true

	env := b.Build(map[string]string{"PATH": `C:\tools`, "systemroot": `D:\Windows`}, "")

	if env.Len() != 2 {
		t.Fatalf("expected two variables, got %v", env.Slice())
	}
	if path, _ := env.Lookup("PATH"); path != `C:\Windows\system32;C:\tools` {
		t.Fatalf("unexpected Path %q", path)
	}
	if root, _ := env.Lookup("SYSTEMROOT"); root != `D:\Windows` {
		t.Fatalf("expected case-insensitive override, got %q", root)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b := fakeBuilder(map[string]string{"HOME": "/home/dev", "LANG": "C.UTF-8"})
	extra := map[string]string{"A": "1", "B": "2", "C": "3"}

	first := b.Build(extra, "/p")
	second := b.Build(extra, "/p")

	if !reflect.DeepEqual(first.Slice(), second.Slice()) {
		t.Fatalf("expected identical blocks:\n%v\n%v", first.Slice(), second.Slice())
	}
	if !first.Equal(second) {
		t.Fatalf("expected Equal to report true")
	}
}

func TestCleanIsBuiltOnce(t *testing.T) {
	first := Clean()
	second := Clean()
	if first != second {
		t.Fatalf("expected Clean to return the cached block")
	}
	if first.Inherit() {
		t.Fatalf("expected clean block to be explicit")
	}
	if _, ok := first.Lookup(pathVar); !ok {
		t.Fatalf("expected clean block to carry %s", pathVar)
	}
}

func TestNilEnvironmentInherits(t *testing.T) {
	var env *Environment
	if !env.Inherit() {
		t.Fatalf("expected nil environment to inherit")
	}
	if env.Slice() != nil || env.Len() != 0 || env.Names() != nil {
		t.Fatalf("expected nil environment to be empty")
	}
	if _, ok := env.Lookup("PATH"); ok {
		t.Fatalf("expected lookup on nil environment to miss")
	}
	if !env.Equal(nil) {
		t.Fatalf("expected nil environments to be equal")
	}
}

func TestValidatePattern(t *testing.T) {
	if err := ValidatePattern("TOOL_*"); err != nil {
		t.Fatalf("expected valid pattern: %v", err)
	}
	if err := ValidatePattern("PLAIN"); err != nil {
		t.Fatalf("expected literal entry to validate: %v", err)
	}
	if err := ValidatePattern("BROKEN_[*"); err == nil {
		t.Fatalf("expected malformed pattern to fail")
	}
}
