package segment

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Paths returns a function producing a fresh path inside dir on every call. Names are
// "segment-<uuid><ext>", so they never collide between stages sharing a directory.
func Paths(dir, ext string) func() string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		panic("dir can't be blank")
	}
	return func() string {
		return filepath.Join(dir, "segment-"+uuid.NewString()+ext)
	}
}
