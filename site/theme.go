package site

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hypergopher/markblog/internal/config"
)

const defaultAccent = "#2563eb"

// reColor accepts hex colors, named colors and rgb()/hsl() notation.
var reColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\))$`)

// ThemeCSS returns the site stylesheet: the palette variables for the configured theme followed
// by the base styles.
func ThemeCSS(theme config.ThemeConfig) string {
	accent := strings.TrimSpace(theme.Accent)
	if !reColor.MatchString(accent) {
		accent = defaultAccent
	}

	var b strings.Builder
	fmt.Fprintf(&b, ":root {\n  --accent: %s;\n%s}\n\n", accent, lightPalette)
	fmt.Fprintf(&b, "[data-theme=\"dark\"] {\n%s}\n\n", darkPalette)
	if theme.Mode == config.ThemeSystem || theme.Mode == "" {
		fmt.Fprintf(&b, "@media (prefers-color-scheme: dark) {\n  :root:not([data-theme=\"light\"]) {\n%s  }\n}\n\n",
			indent(darkPalette))
	}

	css, err := templateFS.ReadFile("templates/site.css")
	if err == nil {
		b.Write(css)
	}

	return b.String()
}

const lightPalette = `  --bg: #ffffff;
  --fg: #0f172a;
  --muted: #64748b;
  --card: #f8fafc;
  --border: #e2e8f0;
  color-scheme: light;
`

const darkPalette = `  --bg: #0b1120;
  --fg: #e2e8f0;
  --muted: #94a3b8;
  --card: #111827;
  --border: #1e293b;
  color-scheme: dark;
`

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "")
}
