package document

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDPrefix is the prefix used for generated document ids.
const IDPrefix = "doc"

// NewID generates a unique id of the form "<prefix>_<uuid>". The prefix
// must not contain an underscore, since the underscore separates prefix
// from the random part.
func NewID(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: id prefix is empty", ErrInvalidID)
	}
	if strings.Contains(prefix, "_") {
		return "", fmt.Errorf("%w: id prefix %q contains an underscore", ErrInvalidID, prefix)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + "_" + id.String(), nil
}
