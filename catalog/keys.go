package catalog

import "strings"

// DefaultNamespace groups keys whose dotted name carries no segment prefix.
const DefaultNamespace = "common"

// NamespaceFor derives the namespace for a key name when none was declared:
// the first dotted segment, or DefaultNamespace for single-segment names.
func NamespaceFor(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return DefaultNamespace
}
