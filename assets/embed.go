// assets/embed.go
//
// Embedded default word list, used to seed an empty dictionary so the
// server can run without an imported word file.

package assets

import (
	"embed"
	"io"
)

//go:embed words.txt
var FS embed.FS

// DefaultWords opens the embedded default word list.
// The caller must close the returned reader.
func DefaultWords() (io.ReadCloser, error) {
	return FS.Open("words.txt")
}
