package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalName normalizes a declared identifier for symbol-table lookup and
// content hashing. Source text may spell the same identifier with different
// Unicode compositions (combining marks vs precomposed forms); NFC collapses
// those so a program's hash does not depend on how its editor encoded it.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
