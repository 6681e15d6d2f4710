package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// DefaultFileNames are probed, in order, by Discover.
var DefaultFileNames = []string{"procwarden.yaml", "procwarden.yml", "procwarden.toml"}

// Load reads a configuration file. The format follows the extension.
func Load(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var doc File
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		err = decodeYAML(absPath, &doc)
	case ".toml":
		err = decodeTOML(absPath, &doc)
	default:
		return nil, fmt.Errorf("%s: %w", absPath, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	doc.Path = absPath

	vars, err := resolveVars(filepath.Dir(absPath), &doc.Environment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	doc.Environment.Vars = vars
	doc.Environment.PathPrefix = os.ExpandEnv(doc.Environment.PathPrefix)
	doc.Metrics.Textfile = os.ExpandEnv(doc.Metrics.Textfile)

	doc.ApplyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}

// Discover returns the first default config file present in dir, or "".
func Discover(dir string) string {
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func decodeYAML(path string, doc *File) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}

func decodeTOML(path string, doc *File) error {
	meta, err := toml.DecodeFile(path, doc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("open config file: %w", err)
		}
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("%s: decode: unknown field(s) %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// resolveVars merges env_file entries with inline vars. Inline values win
// and both are expanded against the current environment.
func resolveVars(baseDir string, spec *EnvironmentSpec) (map[string]string, error) {
	var merged map[string]string
	if spec.EnvFile != "" {
		expanded := os.ExpandEnv(spec.EnvFile)
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Clean(filepath.Join(baseDir, expanded))
		}
		spec.EnvFile = expanded

		fileEnv, err := godotenv.Read(expanded)
		if err != nil {
			return nil, fmt.Errorf("%s: load env file %q: %w", fieldPath("environment", "env_file"), expanded, err)
		}
		merged = make(map[string]string, len(fileEnv)+len(spec.Vars))
		for k, v := range fileEnv {
			merged[k] = v
		}
	}
	if len(spec.Vars) > 0 {
		if merged == nil {
			merged = make(map[string]string, len(spec.Vars))
		}
		for k, v := range spec.Vars {
			merged[k] = os.ExpandEnv(v)
		}
	}
	return merged, nil
}
