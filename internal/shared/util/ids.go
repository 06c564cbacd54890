package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a prefixed, globally unique identifier. The timestamp component
// keeps identifiers roughly sortable by creation time; the uuid suffix makes
// collisions within the same second a non-issue.
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().UTC().Format("20060102150405"), suffix)
}
