// Package progressbar renders a single line text progress bar.
package progressbar

import (
	"errors"
	"fmt"
	"strings"
)

const defaultWidth = 40

// Bar represents the progress bar to be displayed
type Bar struct {
	completed int
	total     int
	width     int
}

// UpdateBar adds the given value to the progress bar, please enter a positive integer
func (b *Bar) UpdateBar(add int) (bar string, err error) {
	if add < 0 {
		return "", errors.New("this is not a valid positive integer")
	}
	return b.Set(b.completed + add), nil
}

// Set moves the bar to done out of its total and returns the rendering
func (b *Bar) Set(done int) string {
	switch {
	case done < 0:
		done = 0
	case done > b.total:
		done = b.total
	}
	b.completed = done
	return b.String()
}

func (b *Bar) String() string {
	if b.total <= 0 {
		return fmt.Sprintf("\r[%s] (0 / 0)", strings.Repeat("=", b.width))
	}

	filled := b.completed * b.width / b.total
	if b.completed >= b.total {
		return fmt.Sprintf("\r[%s] (%d / %d)", strings.Repeat("=", b.width), b.total, b.total)
	}
	return fmt.Sprintf("\r[%s>%s] (%d / %d)", strings.Repeat("=", filled), strings.Repeat(" ", b.width-filled-1), b.completed, b.total)
}

// New creates a progressbar for total steps, drawn defaultWidth cells wide
func New(total int) *Bar {
	return &Bar{total: total, width: defaultWidth}
}

// Done ends the progress bar
func (b *Bar) Done() (bar string) {
	return b.Set(b.total)
}
