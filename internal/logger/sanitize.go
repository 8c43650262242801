package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rune limits for values that end up in log fields
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxTopicLength         = 200
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// Prompts and raw model output, logged only in debug mode
	MaxDebugContentLength = 10000
)

const truncationMarker = "..."

// SanitizeString makes s safe for a single structured log field: invalid
// UTF-8 bytes and non-printable runes other than whitespace are dropped and
// the result is cut to maxLength runes. A non-positive maxLength uses
// MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLength*utf8.UTFMax))
	kept := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if (r == utf8.RuneError && size == 1) || !loggable(r) {
			continue
		}
		if kept == maxLength {
			b.WriteString(truncationMarker)
			break
		}
		b.WriteRune(r)
		kept++
	}
	return b.String()
}

func loggable(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.IsPrint(r)
}

// SanitizePath is used for request paths that did not match a route
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeTopic collapses whitespace so a multi-line topic logs on one line
func SanitizeTopic(topic string) string {
	return SanitizeString(strings.Join(strings.Fields(topic), " "), MaxTopicLength)
}

func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID bounds identity-provider subjects, which are not always UUIDs
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}
