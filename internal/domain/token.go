package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const tokenSep = "."

// TokenID builds the id of the n-th ticket sold for a show's ticket type.
func TokenID(showKey, typeName string, n uint32) string {
	return showKey + tokenSep + typeName + tokenSep + strconv.FormatUint(uint64(n), 10)
}

// ParseTokenID splits a token id produced by TokenID.
func ParseTokenID(id string) (showKey, typeName string, n uint32, err error) {
	parts := strings.Split(id, tokenSep)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", 0, fmt.Errorf("%w: token id %q", ErrInvalidKey, id)
	}

	seq, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: token id %q", ErrInvalidKey, id)
	}

	return parts[0], parts[1], uint32(seq), nil
}

// ValidateKey checks a show key or ticket type name. Both become segments of
// a token id, so they may not be empty or contain the separator.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.Contains(key, tokenSep) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
