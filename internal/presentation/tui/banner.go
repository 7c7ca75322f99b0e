// Package tui prints coloured terminal output for the quill CLI.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ____        _ _ _ `, "#818cf8"},
	{`  / __ \__  __(_) | |`, "#a78bfa"},
	{` / / / / / / / / | |`, "#c084fc"},
	{`/ /_/ / /_/ / / /| |`, "#e879f9"},
	{`\___\_\__,_/_/_/ |_|`, "#f472b6"},
}

// PrintBanner writes the quill banner and version to w. Colours are dropped
// when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
