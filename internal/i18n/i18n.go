// Package i18n resolves the bot's user-facing strings from YAML bundles.
// Each file carries one or more top-level language keys; nested groups are
// flattened to dot-separated lookup keys ("reply.no_results").
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Translator resolves localized strings using dot-separated keys. A key
// with no entry in the requested or default language comes back verbatim,
// which makes a missing translation visible in chat instead of silent.
type Translator interface {
	T(key string) string
	Lang() string
}

type bundle map[string]string

// Manager holds the loaded bundles and the fallback language.
type Manager struct {
	bundles     map[string]bundle
	defaultLang string
}

// LoadFromDir reads every YAML file in dir and merges them into per-language
// bundles. The default language must end up present.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	paths, err := localeFiles(dir)
	if err != nil {
		return nil, err
	}

	bundles := make(map[string]bundle)
	for _, path := range paths {
		if err := mergeFile(path, bundles); err != nil {
			return nil, err
		}
	}
	if len(bundles) == 0 {
		return nil, fmt.Errorf("i18n: no locale bundles in %s", dir)
	}

	if defaultLang == "" {
		defaultLang = "en"
	}
	if _, ok := bundles[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{bundles: bundles, defaultLang: defaultLang}, nil
}

// Translator returns the translator for lang, falling back to the default
// language when lang has no bundle.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := m.bundles[lang]; !ok {
		lang = m.defaultLang
	}
	return translator{lang: lang, m: m}
}

type translator struct {
	lang string
	m    *Manager
}

func (t translator) Lang() string { return t.lang }

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || t.m == nil {
		return key
	}

	if value, ok := t.m.bundles[t.lang][key]; ok && value != "" {
		return value
	}
	if value, ok := t.m.bundles[t.m.defaultLang][key]; ok && value != "" {
		return value
	}
	return key
}

func localeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

func mergeFile(path string, bundles map[string]bundle) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", path, err)
	}

	for lang, tree := range doc {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}

		b := bundles[lang]
		if b == nil {
			b = make(bundle)
		}
		addEntries(b, "", tree)
		if len(b) > 0 {
			bundles[lang] = b
		}
	}
	return nil
}

// addEntries walks the parsed tree depth-first, joining map keys with dots.
// Only string leaves become messages; anything else is skipped.
func addEntries(b bundle, prefix string, node any) {
	switch v := node.(type) {
	case string:
		if prefix != "" {
			b[prefix] = v
		}
	case map[string]any:
		for key, child := range v {
			if key == "" {
				continue
			}
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			addEntries(b, next, child)
		}
	}
}
