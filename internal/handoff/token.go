// Package handoff moves a deferred delivery request into the requester's
// direct chat through a bot start link.
package handoff

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/memohai/cinebot/internal/catalog"
)

// ErrInvalidToken is returned for tokens that do not decode to a key and a
// known variant.
var ErrInvalidToken = errors.New("invalid handoff token")

// MaxStartParam is Telegram's limit on the start parameter of a bot link.
const MaxStartParam = 64

// Normalized keys never contain a pipe.
const separator = "|"

// Encode packs key and variant into a URL-safe token. Keys too long for a
// start parameter are replaced by their catalog.Ref, so Decode may return a
// reference that callers resolve with Snapshot.Lookup.
func Encode(key string, variant catalog.Variant) string {
	token := encode(key, variant)
	if len(token) > MaxStartParam {
		token = encode(catalog.Ref(key), variant)
	}
	return token
}

func encode(key string, variant catalog.Variant) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key + separator + string(variant)))
}

// Decode reverses Encode.
func Decode(token string) (string, catalog.Variant, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	s := string(raw)
	i := strings.LastIndex(s, separator)
	if i <= 0 {
		return "", "", ErrInvalidToken
	}
	variant, ok := catalog.ParseVariant(s[i+len(separator):])
	if !ok {
		return "", "", ErrInvalidToken
	}
	return s[:i], variant, nil
}

// StartLink returns the bot link that opens a direct chat with token as the
// start parameter. ok is false when the token exceeds MaxStartParam; link is
// then a plain bot link.
func StartLink(botUsername, token string) (link string, ok bool) {
	base := "https://t.me/" + url.PathEscape(strings.TrimPrefix(botUsername, "@"))
	if token == "" || len(token) > MaxStartParam {
		return base, false
	}
	return base + "?start=" + token, true
}
