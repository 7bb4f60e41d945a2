// Package obfuscate - reversible text encoding for persisted identifiers.
//
// The encoding deters casual inspection of the raw files and yields
// filesystem-safe per-user directory names. It is cosmetic concealment and
// explicitly NOT a security boundary; anyone can decode it.
package obfuscate

import (
	"encoding/base64"
	"fmt"
)

/*
Encode obscure a text value for storage

	@param text string - the plain text
	@return the encoded form
*/
func Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

/*
Decode recover the plain text of an encoded value

	@param encoded string - the encoded form
	@return the plain text
*/
func Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("value is not valid encoded text [%w]", err)
	}
	return string(raw), nil
}
