package links

import (
	"regexp"
	"strings"
)

// Group references arrive from bot owners in several shapes. Recognition
// order: pure signed integer, t.me/+CODE or t.me/joinchat/CODE invite links,
// @username, bare t.me/username. Everything else is unrecognized.

var (
	chatIDPattern     = regexp.MustCompile(`^-?\d+$`)
	usernamePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)
	inviteCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ExtractGroupRef canonicalizes a group reference: numeric ids stay as-is,
// invite links yield the bare invite code, usernames always carry the "@".
func ExtractGroupRef(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if chatIDPattern.MatchString(s) {
		return s, true
	}
	if rest, ok := stripLinkPrefix(s); ok {
		rest = strings.TrimSuffix(rest, "/")
		if code, found := strings.CutPrefix(rest, "+"); found {
			if inviteCodePattern.MatchString(code) {
				return code, true
			}
			return "", false
		}
		if code, found := strings.CutPrefix(rest, "joinchat/"); found {
			if inviteCodePattern.MatchString(code) {
				return code, true
			}
			return "", false
		}
		if usernamePattern.MatchString(rest) {
			return "@" + rest, true
		}
		return "", false
	}
	if name, found := strings.CutPrefix(s, "@"); found {
		if usernamePattern.MatchString(name) {
			return s, true
		}
		return "", false
	}
	return "", false
}

// LooksLikeGroupRef reports whether the text is an activation attempt at all,
// recognized or not. Unrecognized attempts surface an invalid-link reply
// instead of being silently ignored.
func LooksLikeGroupRef(s string) bool {
	s = strings.TrimSpace(s)
	if chatIDPattern.MatchString(s) || strings.HasPrefix(s, "@") {
		return true
	}
	_, ok := stripLinkPrefix(s)
	return ok
}

func stripLinkPrefix(s string) (string, bool) {
	for _, p := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, p)
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.CutPrefix(s, "t.me/")
}

// GroupLink renders a canonical ref as something a payer can tap. Numeric ids
// have no public link, so they come back empty.
func GroupLink(ref string) string {
	if name, found := strings.CutPrefix(ref, "@"); found {
		return "https://t.me/" + name
	}
	if ref == "" || chatIDPattern.MatchString(ref) {
		return ""
	}
	return "https://t.me/+" + ref
}
