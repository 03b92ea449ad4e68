/*
Package randx provides functions for generating unique identifiers used for
stored objects, backed by crypto-grade randomness.
*/
package randx

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PhotoKeyPrefix is the object key prefix under which listing photos are stored.
const PhotoKeyPrefix = "products/"

// PhotoKey generates a unique object key for a listing photo with the given
// file extension (including the leading dot).
func PhotoKey(ext string) string {
	return fmt.Sprintf("%s%s%s", PhotoKeyPrefix, uuid.New().String(), strings.ToLower(ext))
}

// IsPhotoKey reports whether key points into the listing photo namespace.
func IsPhotoKey(key string) bool {
	return strings.HasPrefix(key, PhotoKeyPrefix) && len(key) > len(PhotoKeyPrefix)
}
