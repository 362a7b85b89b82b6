package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"
)

// Payload is an artifact as a JSON object. The store only interprets the
// uid, userCode, grantId and exp fields.
type Payload map[string]any

// String returns the string field at key, or "".
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func (p Payload) UID() string      { return p.String("uid") }
func (p Payload) UserCode() string { return p.String("userCode") }
func (p Payload) GrantID() string  { return p.String("grantId") }

// Exp returns the absolute expiry in Unix seconds, or 0 when unset.
func (p Payload) Exp() int64 {
	switch v := p["exp"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int64(f)
		}
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Record is the canonical stored form of a payload plus its indexed fields.
type Record struct {
	Raw      []byte
	UID      string
	UserCode string
	GrantID  string
	Exp      int64
}

// Prepare stamps exp (when ttl > 0) onto a copy of payload and serialises it.
// The caller's map is never modified.
func Prepare(payload Payload, ttl time.Duration, now time.Time) (Record, error) {
	p := make(Payload, len(payload)+1)
	maps.Copy(p, payload)
	if exp := ExpiresAt(now, ttl); exp != 0 {
		p["exp"] = exp
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode payload: %w", err)
	}

	return Record{
		Raw:      raw,
		UID:      p.UID(),
		UserCode: p.UserCode(),
		GrantID:  p.GrantID(),
		Exp:      p.Exp(),
	}, nil
}

// ParsePayload decodes a stored record into a fresh Payload. Numbers are
// kept as json.Number so integers survive unchanged.
func ParsePayload(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("store: decode payload: %w", err)
	}
	return p, nil
}

// Encode converts a typed artifact into a Payload.
func Encode(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode %T: %w", v, err)
	}
	return ParsePayload(raw)
}

// Decode fills v from p.
func Decode(p Payload, v any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode into %T: %w", v, err)
	}
	return nil
}
