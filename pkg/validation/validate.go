// Package validation holds the input rules shared by the HTTP handlers and
// the core services. Limits follow the workspace contract: bodies and
// standup lines are capped at 1000 characters, channel names at 20.
package validation

import (
	"regexp"
	"strings"

	"teamline/pkg/apperr"
)

const (
	MaxBodyLen     = 1000
	MaxQueryLen    = 1000
	MaxNameLen     = 50
	MaxChannelLen  = 20
	MinPasswordLen = 6
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MessageBody checks the 1..1000 send/share/sendlater body rule.
func MessageBody(body string) error {
	if len(body) < 1 || len(body) > MaxBodyLen {
		return apperr.Validationf("message length must be between 1 and %d", MaxBodyLen)
	}
	return nil
}

// EditBody checks an edit body; empty is allowed (empty edit deletes).
func EditBody(body string) error {
	if len(body) > MaxBodyLen {
		return apperr.Validationf("message length must be at most %d", MaxBodyLen)
	}
	return nil
}

// StandupLine checks a buffered standup line.
func StandupLine(line string) error {
	if len(line) > MaxBodyLen {
		return apperr.Validationf("standup line must be at most %d characters", MaxBodyLen)
	}
	return nil
}

// Query checks the 1..1000 search query rule.
func Query(q string) error {
	if len(q) < 1 || len(q) > MaxQueryLen {
		return apperr.Validationf("query length must be between 1 and %d", MaxQueryLen)
	}
	return nil
}

// ChannelName checks the 1..20 channel name rule.
func ChannelName(name string) error {
	if len(name) < 1 || len(name) > MaxChannelLen {
		return apperr.Validationf("channel name must be between 1 and %d characters", MaxChannelLen)
	}
	return nil
}

// Email checks the registration email shape.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return apperr.Validationf("invalid email")
	}
	return nil
}

// Password checks the minimum password length.
func Password(pw string) error {
	if len(pw) < MinPasswordLen {
		return apperr.Validationf("password must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// PersonName checks a first or last name.
func PersonName(name string) error {
	if len(name) < 1 || len(name) > MaxNameLen {
		return apperr.Validationf("name must be between 1 and %d characters", MaxNameLen)
	}
	return nil
}

// Handle checks a caller-chosen handle: 3..20 alphanumeric characters.
func Handle(h string) error {
	if len(h) < 3 || len(h) > MaxChannelLen {
		return apperr.Validationf("handle must be between 3 and %d characters", MaxChannelLen)
	}
	for _, r := range h {
		if !isHandleRune(r) {
			return apperr.Validationf("handle must be alphanumeric")
		}
	}
	return nil
}

func isHandleRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// HandleBase derives the base handle from a first/last name pair: the
// lowercased alphanumeric concatenation capped at 20 characters. Collision
// suffixes are appended by the caller and may exceed the cap.
func HandleBase(first, last string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(first + last) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= MaxChannelLen {
			break
		}
	}
	return b.String()
}
