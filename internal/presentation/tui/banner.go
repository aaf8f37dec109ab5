package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`       _   _      _`, "#818cf8"},
	{`   ___| |_(_) ___| | ___   _`, "#a78bfa"},
	{`  / __| __| |/ __| |/ / | | |`, "#c084fc"},
	{`  \__ \ |_| | (__|   <| |_| |`, "#e879f9"},
	{`  |___/\__|_|\___|_|\_\\__, |`, "#f472b6"},
	{`                       |___/`, "#fb7185"},
}

// PrintBanner writes the sticky ASCII art banner to w, coloured for the terminal profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
