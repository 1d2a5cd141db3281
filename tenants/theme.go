package tenants

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jrsteele09/condo-console/internal/utils"
)

// Defaults used by the backend when a tenant has no theme configured
const (
	DefaultPrimaryColor    = "#1976d2"
	DefaultSecondaryColor  = "#dc004e"
	DefaultBackgroundColor = "#f5f5f5"
	DefaultTextColor       = "#333333"
)

// ThemeConfig is the optional per-tenant styling exactly as the backend stores it.
type ThemeConfig struct {
	PrimaryColor    *string `json:"primary_color,omitempty"`
	SecondaryColor  *string `json:"secondary_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	TextColor       *string `json:"text_color,omitempty"`
	LogoURL         *string `json:"logo_url,omitempty"`
	CustomCSS       *string `json:"custom_css,omitempty"`
}

// Theme is a ThemeConfig with every colour resolved
type Theme struct {
	PrimaryColor    string
	SecondaryColor  string
	BackgroundColor string
	TextColor       string
	LogoURL         string
	CustomCSS       string
}

// Resolve fills unset or malformed colours with the defaults
func (tc ThemeConfig) Resolve() Theme {
	return Theme{
		PrimaryColor:    colourOr(tc.PrimaryColor, DefaultPrimaryColor),
		SecondaryColor:  colourOr(tc.SecondaryColor, DefaultSecondaryColor),
		BackgroundColor: colourOr(tc.BackgroundColor, DefaultBackgroundColor),
		TextColor:       colourOr(tc.TextColor, DefaultTextColor),
		LogoURL:         utils.Value(tc.LogoURL),
		CustomCSS:       utils.Value(tc.CustomCSS),
	}
}

// DefaultTheme is what a logged out surface shows
func DefaultTheme() Theme {
	return ThemeConfig{}.Resolve()
}

// CSSVariables maps the theme onto the custom properties the web console reads.
func (t Theme) CSSVariables() map[string]string {
	return map[string]string{
		"--primary-color":    t.PrimaryColor,
		"--secondary-color":  t.SecondaryColor,
		"--background-color": t.BackgroundColor,
		"--text-color":       t.TextColor,
	}
}

// ThemeApplier is the render surface a theme is applied to.
type ThemeApplier interface {
	ApplyTheme(tenantName string, theme Theme)
	ResetTheme()
}

// NopApplier ignores themes
type NopApplier struct{}

func (NopApplier) ApplyTheme(string, Theme) {}
func (NopApplier) ResetTheme()              {}

// ANSIForeground converts a #rrggbb colour to a 24-bit terminal escape
func ANSIForeground(hex string) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm", r, g, b), nil
}

// ANSIBackground converts a #rrggbb colour to a 24-bit terminal background escape
func ANSIBackground(hex string) (string, error) {
	r, g, b, err := parseHex(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("\033[48;2;%d;%d;%dm", r, g, b), nil
}

func colourOr(v *string, def string) string {
	c := strings.TrimSpace(utils.Value(v))
	if _, _, _, err := parseHex(c); err != nil {
		return def
	}
	return strings.ToLower(c)
}

func parseHex(hex string) (r, g, b uint8, err error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 || !strings.HasPrefix(hex, "#") {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid colour %q", hex)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
