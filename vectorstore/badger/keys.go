package badger

import "fmt"

// Key prefixes for different data types
const (
	rowPrefix = "vsrow"
)

// makeRowKey generates a key for a row in a namespace.
// Format: prefix:namespace:id
func makeRowKey(namespace, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", rowPrefix, namespace, id))
}

// makeNamespacePrefix generates the key prefix covering every row in a
// namespace.
func makeNamespacePrefix(namespace string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", rowPrefix, namespace))
}
