package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID builds a record identifier from the creation time plus a
// random suffix: sortable by creation, collision-safe under bursts.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}
