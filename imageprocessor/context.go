package imageprocessor

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"imagesync/utils"
)

// DefaultContextLength bounds the naming context in runes
const DefaultContextLength = 50

// FallbackContext is used when neither the file nor its folder yields a name
const FallbackContext = "unknown"

var genericStems = map[string]bool{
	"img":   true,
	"image": true,
	"photo": true,
	"pic":   true,
}

// ExtractContext derives a human-readable group name from the file path
func ExtractContext(path string) string {
	return extractContext(path, DefaultContextLength)
}

func extractContext(path string, maxLen int) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	context := utils.SanitizeName(stem)
	if isGenericContext(context) {
		context = utils.SanitizeName(filepath.Base(filepath.Dir(path)))
	}
	if context == "" || context == "." {
		return FallbackContext
	}

	context = strings.TrimSpace(utils.TruncateRunes(context, maxLen))
	if context == "" {
		return FallbackContext
	}
	return context
}

func isGenericContext(context string) bool {
	return context == "" ||
		utf8.RuneCountInString(context) < 3 ||
		genericStems[strings.ToLower(context)]
}
