// Package terminal erases echoed input, such as a typed DSN, from the screen.
package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const fallbackWidth = 80

// ClearPreviousLines erases the prompt and input just echoed on stdout.
// textLength is len(prompt)+len(input).
func ClearPreviousLines(textLength int) {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	clearLines(os.Stdout, LinesUsed(textLength, width))
}

// LinesUsed is the number of rows textLength characters wrap onto at width,
// plus the empty row left by Enter.
func LinesUsed(textLength, width int) int {
	if width <= 0 {
		width = fallbackWidth
	}
	n := (textLength + width - 1) / width
	if n < 1 {
		n = 1
	}
	return n + 1
}

func clearLines(w io.Writer, n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < n-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
