package platform

import (
	"os"
	"strings"
)

// Classpath is an ordered list of archive paths handed to the compiler or the
// emulator launcher.
type Classpath []string

// Join renders the classpath with the platform list separator. Entry order
// is preserved exactly.
func (c Classpath) Join() string {
	return strings.Join(c, string(os.PathListSeparator))
}

// Append returns a new classpath extended with the given paths; the receiver
// is left untouched so callers can branch from a shared prefix.
func (c Classpath) Append(paths ...string) Classpath {
	out := make(Classpath, 0, len(c)+len(paths))
	out = append(out, c...)
	return append(out, paths...)
}
