package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds brick, section and page identifiers.
const maxIDLength = 128

// ValidateID validates a brick, section or page identifier.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or whitespace
//   - No path separators (ids are used in URLs and storage keys)
//   - Maximum length of 128 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "id %q contains whitespace or control characters", id)
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "id %q cannot contain path separators", id)
	}

	return nil
}

// brickTypeRegex matches brick type names such as "text", "hero-image" or "form.input".
var brickTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)

// ValidateBrickType validates a brick type name used to look up manifests.
func ValidateBrickType(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "brick type cannot be empty")
	}
	if !brickTypeRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid brick type: %q", name)
	}
	return nil
}

// ValidateDatasourceRef validates a datasource reference.
// References are opaque to the layout engine but end up in cache keys.
func ValidateDatasourceRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidInput, "datasource reference cannot be empty")
	}
	if len(ref) > 256 {
		return New(ErrCodeInvalidInput, "datasource reference too long (max 256 characters)")
	}
	for _, r := range ref {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "datasource reference contains invalid control characters")
		}
	}
	return nil
}
