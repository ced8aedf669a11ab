package errors

import (
	"unicode"

	"github.com/google/uuid"
)

// maxElementIDLen bounds node and edge IDs accepted from clients.
const maxElementIDLen = 256

// ValidateElementID checks a node or edge ID received from a client.
//
// Unknown IDs are legal for selection, so only the shape is checked:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 bytes
func ValidateElementID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "element id cannot be empty")
	}
	if len(id) > maxElementIDLen {
		return New(ErrCodeInvalidID, "element id too long (max %d characters)", maxElementIDLen)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "element id contains invalid control characters")
		}
	}
	return nil
}

// ValidateSessionID checks that id is a canonical UUID as issued by the
// session package.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid session id %q", id)
	}
	return nil
}
