package capture

import (
	"bufio"
	"errors"
	"io"
	"iter"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Lines returns a single-use, blocking sequence over the lines of r. Each line keeps
// its terminator; a final line without one is yielded as is. Ill-formed UTF-8 is
// replaced with U+FFFD. A read error other than io.EOF is yielded once as the
// last element.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		br := bufio.NewReader(transform.NewReader(r, runes.ReplaceIllFormed()))
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				if !yield(line, nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}
		}
	}
}
