package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"      _                            ",
	"  ___| |_ ___ _ __  _ __   ___ _ __ ",
	" / __| __/ _ \\ '_ \\| '_ \\ / _ \\ '__|",
	" \\__ \\ ||  __/ |_) | |_) |  __/ |   ",
	" |___/\\__\\___| .__/| .__/ \\___|_|   ",
	"             |_|   |_|              ",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8"}

// PrintBanner writes the stepper banner to w, colored when w supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
