package extract

import (
	"fmt"
	"strings"

	"github.com/lu4p/cat"
)

// extractOpenDoc handles OpenDocument text and RTF files.
func extractOpenDoc(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract document: %w", err)
	}
	return strings.TrimSpace(text), nil
}
