package render

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ErrThemeNotFound reports a theme or variant that is not registered.
var ErrThemeNotFound = errors.New("render: theme not found")

// DefaultThemeName is the theme used when none is configured.
const DefaultThemeName = "trscan"

// DefaultManifest is the built-in report theme. Tokens become CSS variables
// of the HTML report; the PDF renderer reads the severity colours.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"font-family":       "Helvetica, Arial, sans-serif",
			"text-color":        "#212529",
			"heading-color":     "#1f3a5f",
			"border-color":      "#dee2e6",
			"severity-critical": "#8b0000",
			"severity-high":     "#d9534f",
			"severity-medium":   "#f0ad4e",
			"severity-low":      "#5bc0de",
			"severity-info":     "#6c757d",
		},
		Variants: map[string]theme.Variant{
			"print": {
				Tokens: map[string]string{
					"text-color":    "#000000",
					"heading-color": "#000000",
				},
			},
		},
	}
}

// ThemeCatalog is an in-memory theme selector over registered manifests.
type ThemeCatalog struct {
	mu             sync.RWMutex
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ThemeCatalog)(nil)

// NewThemeCatalog returns a catalog holding DefaultManifest. Empty names fall
// back to defaultTheme and defaultVariant.
func NewThemeCatalog(defaultTheme, defaultVariant string) *ThemeCatalog {
	if strings.TrimSpace(defaultTheme) == "" {
		defaultTheme = DefaultThemeName
	}
	c := &ThemeCatalog{
		manifests:      make(map[string]*theme.Manifest),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
	_ = c.Register(DefaultManifest())
	return c
}

// Register adds or replaces a manifest by name.
func (c *ThemeCatalog) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return fmt.Errorf("render: theme manifest name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifests[manifest.Name] = manifest
	return nil
}

// Select resolves a theme and variant.
func (c *ThemeCatalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = c.defaultTheme
		if variant == "" {
			variant = c.defaultVariant
		}
	}
	c.mu.RLock()
	manifest, ok := c.manifests[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrThemeNotFound, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ThemeConfig selects name/variant and flattens the manifest and its variant
// into a renderer configuration. Variant tokens, templates and asset files
// override the base ones.
func ThemeConfig(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	if selection == nil || selection.Manifest == nil {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	manifest := selection.Manifest

	tokens := maps.Clone(manifest.Tokens)
	partials := maps.Clone(manifest.Templates)
	prefix := manifest.Assets.Prefix
	files := maps.Clone(manifest.Assets.Files)
	if v, ok := manifest.Variants[selection.Variant]; ok {
		tokens = merge(tokens, v.Tokens)
		partials = merge(partials, v.Templates)
		files = merge(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok {
				return ""
			}
			if prefix == "" || strings.Contains(file, "://") {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}, nil
}

func merge(base, override map[string]string) map[string]string {
	if base == nil {
		base = make(map[string]string, len(override))
	}
	maps.Copy(base, override)
	return base
}

// CSSVarsStyle renders vars as a :root rule with sorted declarations.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// Token returns cfg.Tokens[key] or fallback.
func Token(cfg *theme.RendererConfig, key, fallback string) string {
	if cfg == nil {
		return fallback
	}
	if value, ok := cfg.Tokens[key]; ok && value != "" {
		return value
	}
	return fallback
}
