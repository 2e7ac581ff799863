// Package symbol maps user-facing instrument spellings to provider lookup keys.
package symbol

import "strings"

// fxSuffix marks a currency cross in the provider's symbol namespace.
const fxSuffix = "=X"

// Normalize converts slash-delimited currency pairs to the provider's
// currency-cross key (USD/ZAR -> USDZAR=X). Anything else is returned as is;
// the key is not checked for existence.
func Normalize(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	return strings.ReplaceAll(s, "/", "") + fxSuffix
}
