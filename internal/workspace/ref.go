package workspace

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidReference means a container reference holds no usable id.
var ErrInvalidReference = errors.New("invalid container reference")

var (
	plainID    = regexp.MustCompile(`(?i)^[0-9a-f]{32}$`)
	dashedID   = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	trailingID = regexp.MustCompile(`(?i)([0-9a-f]{32})$`)
)

// ParseContainerRef extracts the container id from a raw id or a page URL.
//
// Accepted forms:
//
//	0123456789abcdef0123456789abcdef
//	01234567-89ab-cdef-0123-456789abcdef
//	https://www.notion.so/<workspace>/<Title>-<id>
//	https://notion.so/<id>?v=<view>
//	notion.so/<Title>-<id>
//	https://www.notion.so/<workspace>/<db>?v=<view>&p=<id>
//
// The id is returned in dashed lowercase form.
func ParseContainerRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidReference)
	}
	if id, ok := asID(ref); ok {
		return id, nil
	}

	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
	}

	// A peeked page wins over the view it was opened from.
	if p := u.Query().Get("p"); p != "" {
		if id, ok := asID(p); ok {
			return id, nil
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if id, ok := asID(seg); ok {
			return id, nil
		}
		if m := trailingID.FindStringSubmatch(seg); m != nil {
			return dashed(m[1]), nil
		}
	}
	return "", fmt.Errorf("%w: no id in %q", ErrInvalidReference, ref)
}

func asID(s string) (string, bool) {
	switch {
	case plainID.MatchString(s):
		return dashed(s), true
	case dashedID.MatchString(s):
		return strings.ToLower(s), true
	}
	return "", false
}

func dashed(hex32 string) string {
	h := strings.ToLower(hex32)
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}

// SameID compares two ids ignoring dashes and case.
func SameID(a, b string) bool {
	return normalizeID(a) == normalizeID(b)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}
