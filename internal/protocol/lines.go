package protocol

import (
	"iter"
	"strings"
)

// Lines yields the numbered lines of s, starting at zero.
func Lines(s string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var line string
		for found {
			line, s, found = strings.Cut(s, "\n")
			if !yield(i, strings.TrimSuffix(line, "\r")) {
				return
			}
			i++
		}
	}
}
