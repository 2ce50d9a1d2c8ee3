package main

import (
	"os"

	"golang.org/x/term"
)

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80 // fallback width
	}
	return width
}

// contextWidth leaves room for the index and address columns.
func contextWidth() int {
	return max(getTerminalWidth()-50, 30)
}
