package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	domain "btc-lending-backend/internal/domain/ledger"
)

// payload is a flattened ledger result. Scalar results are stored under
// "value".
type payload map[string]any

var wrapperKeys = []string{"result", "data", "response", "payload"}

const maxDepth = 5

// normalize strips wrapper objects and turns any embedded error object into
// a *domain.Error. An empty body yields an empty payload.
func normalize(op string, body []byte) (payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return payload{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(op, "invalid json: "+snippet(body))
	}

	for depth := 0; depth < maxDepth; depth++ {
		m, ok := v.(map[string]any)
		if !ok {
			return payload{"value": v}, nil
		}
		if err := embeddedError(op, m); err != nil {
			return nil, err
		}
		inner, found := unwrap(m)
		if !found {
			return payload(m), nil
		}
		v = inner
	}
	return nil, malformed(op, "response nested too deeply")
}

func unwrap(m map[string]any) (any, bool) {
	for _, k := range wrapperKeys {
		if inner, ok := m[k]; ok && inner != nil {
			return inner, true
		}
	}
	return nil, false
}

func embeddedError(op string, m map[string]any) error {
	for _, k := range []string{"error", "err"} {
		switch e := m[k].(type) {
		case nil:
		case bool:
			if e {
				msg, _ := payload(m).str("message", "msg")
				return &domain.Error{Op: op, Code: "ledger_error", Message: msg}
			}
		case string:
			if e != "" {
				return &domain.Error{Op: op, Code: "ledger_error", Message: e}
			}
		case map[string]any:
			p := payload(e)
			code, ok := p.str("code", "type")
			if !ok {
				code = "ledger_error"
			}
			msg, _ := p.str("message", "msg", "reason")
			return &domain.Error{Op: op, Code: code, Message: msg}
		default:
			return &domain.Error{Op: op, Code: "ledger_error", Message: fmt.Sprint(e)}
		}
	}
	if st, ok := payload(m).str("status"); ok {
		switch strings.ToLower(st) {
		case "error", "failed", "failure":
			msg, _ := payload(m).str("message", "msg", "reason")
			return &domain.Error{Op: op, Code: "ledger_error", Message: msg}
		}
	}
	return nil
}

func (p payload) first(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (p payload) str(keys ...string) (string, bool) {
	v, ok := p.first(keys...)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, s != ""
	case json.Number:
		return s.String(), true
	}
	return "", false
}

func (p payload) uint(keys ...string) (uint64, bool) {
	v, ok := p.first(keys...)
	if !ok {
		return 0, false
	}
	var raw string
	switch s := v.(type) {
	case string:
		raw = strings.TrimSpace(s)
	case json.Number:
		raw = s.String()
	default:
		return 0, false
	}
	if h, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		n, err := strconv.ParseUint(h, 16, 64)
		return n, err == nil
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return uint64(f), true
}

func (p payload) float(keys ...string) (float64, bool) {
	v, ok := p.first(keys...)
	if !ok {
		return 0, false
	}
	var raw string
	switch s := v.(type) {
	case string:
		raw = s
	case json.Number:
		raw = s.String()
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return f, err == nil
}

func (p payload) boolean(keys ...string) (bool, bool) {
	v, ok := p.first(keys...)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		pb, err := strconv.ParseBool(b)
		return pb, err == nil
	}
	return false, false
}
