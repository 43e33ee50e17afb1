package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/channel"
)

// Action is the routing prefix of callback data.
type Action string

const (
	ActionVariant Action = "res"
	ActionRetry   Action = "retry"
	ActionMovie   Action = "movie"
	ActionPage    Action = "page"
)

// maxCallbackData is Telegram's limit on callback data, in bytes.
const maxCallbackData = 64

var ErrBadPayload = errors.New("malformed callback payload")

// Payload is decoded callback data. <key> may be a catalog.Ref:
//
//	res|<key>|<variant>    pick a variant
//	retry|<key>|<variant>  retry a gated or refused delivery
//	movie|<key>            show a suggested entry
//	page|<n>               turn the admin title list
type Payload struct {
	Action  Action
	Key     string
	Variant catalog.Variant
	Page    int
}

// Encode renders p as callback data. A key that would push the data past
// maxCallbackData is replaced by its catalog.Ref.
func (p Payload) Encode() string {
	data := p.encode()
	if len(data) > maxCallbackData && p.Key != "" && !strings.HasPrefix(p.Key, catalog.RefPrefix) {
		p.Key = catalog.Ref(p.Key)
		data = p.encode()
	}
	return data
}

func (p Payload) encode() string {
	switch p.Action {
	case ActionVariant, ActionRetry:
		return string(p.Action) + "|" + p.Key + "|" + string(p.Variant)
	case ActionMovie:
		return string(p.Action) + "|" + p.Key
	case ActionPage:
		return string(p.Action) + "|" + strconv.Itoa(p.Page)
	}
	return ""
}

// ParsePayload splits on the first pipe for the action and, for variant
// actions, on the last pipe for the variant; the key keeps everything between.
func ParsePayload(data string) (Payload, error) {
	action, rest, ok := strings.Cut(data, "|")
	if !ok || rest == "" {
		return Payload{}, ErrBadPayload
	}
	p := Payload{Action: Action(action)}
	switch p.Action {
	case ActionVariant, ActionRetry:
		i := strings.LastIndex(rest, "|")
		if i <= 0 {
			return Payload{}, ErrBadPayload
		}
		v, ok := catalog.ParseVariant(rest[i+1:])
		if !ok {
			return Payload{}, ErrBadPayload
		}
		p.Key, p.Variant = rest[:i], v
	case ActionMovie:
		p.Key = rest
	case ActionPage:
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Payload{}, ErrBadPayload
		}
		p.Page = n
	default:
		return Payload{}, ErrBadPayload
	}
	return p, nil
}

// button returns a callback button, or false when the payload is too long
// for the platform.
func button(text string, p Payload) (channel.Button, bool) {
	data := p.Encode()
	if data == "" || len(data) > maxCallbackData {
		return channel.Button{}, false
	}
	return channel.Button{Text: text, Data: data}, true
}
