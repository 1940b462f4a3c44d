package jwt

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// Claims provides generic claims on map
type Claims map[string]any

// CreateClaims returns Claims populated with the registered claim set.
// Zero values are omitted. When expiry is non-zero, iat, nbf and exp
// are stamped relative to now.
func CreateClaims(id, subject, issuer string, audience []string, expiry time.Duration, extra Claims) Claims {
	now := time.Now().UTC()
	c := Claims{}
	if id != "" {
		c["jti"] = id
	}
	if subject != "" {
		c["sub"] = subject
	}
	if issuer != "" {
		c["iss"] = issuer
	}
	if len(audience) > 0 {
		c["aud"] = audience
	}
	if expiry != 0 {
		c["iat"] = now.Unix()
		c["nbf"] = now.Unix()
		c["exp"] = now.Add(expiry).Unix()
	}
	_ = c.Add(extra)
	return c
}

// Add merges the provided values into the map. Values may be Claims,
// map[string]any, or a struct marshalable to a JSON object.
func (c Claims) Add(val ...any) error {
	for _, i := range val {
		if i == nil {
			continue
		}
		switch m := i.(type) {
		case map[string]any:
			c.merge(m)
		case Claims:
			c.merge(m)
		default:
			if reflect.Indirect(reflect.ValueOf(i)).Kind() == reflect.Struct {
				m, err := normalize(i)
				if err != nil {
					return err
				}
				c.merge(m)
			} else {
				return errors.Errorf("unsupported claims interface: %T", i)
			}
		}
	}
	return nil
}

// To converts the claims to the value pointed to by v.
func (c Claims) To(val any) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.WithStack(err)
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	if err := d.Decode(val); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Marshal returns JSON encoded string
func (c Claims) Marshal() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

func (c Claims) merge(m map[string]any) {
	for k, v := range m {
		c[k] = v
	}
}

func normalize(i any) (map[string]any, error) {
	m := make(map[string]any)

	raw, err := json.Marshal(i)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, errors.WithStack(err)
	}

	return m, nil
}

// String will return the named claim as a string,
// if the underlying type is not a string,
// it will try and co-oerce it to a string.
func (c Claims) String(k string) string {
	v := c[k]
	if v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	default:
		return xlog.EscapedString(v)
	}
}

// Bool will return the named claim as Bool
func (c Claims) Bool(k string) bool {
	v, ok := c[k].(bool)
	return ok && v
}

// Time will return the named claim as Time
func (c Claims) Time(k string) *time.Time {
	v := c[k]
	if v == nil {
		return nil
	}
	switch tv := v.(type) {
	case time.Time:
		return &tv
	case *time.Time:
		return tv
	case int64:
		t := time.Unix(tv, 0)
		return &t
	case uint64:
		t := time.Unix(int64(tv), 0)
		return &t
	case int:
		t := time.Unix(int64(tv), 0)
		return &t
	case float64:
		t := time.Unix(int64(tv), 0)
		return &t
	case json.Number:
		unix, err := tv.Int64()
		if err != nil {
			return nil
		}
		t := time.Unix(unix, 0)
		return &t
	case string:
		unix, err := strconv.ParseInt(tv, 10, 64)
		if err != nil {
			return nil
		}
		t := time.Unix(unix, 0)
		return &t
	default:
		return nil
	}
}

// Int will return the named claim as an int
func (c Claims) Int(k string) int {
	v := c[k]
	if v == nil {
		return 0
	}
	switch tv := v.(type) {
	case int:
		return tv
	case int32:
		return int(tv)
	case int64:
		return int(tv)
	case uint:
		return int(tv)
	case uint32:
		return int(tv)
	case uint64:
		return int(tv)
	case float64:
		return int(tv)
	case json.Number:
		i, err := tv.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(tv)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// Audience returns the aud claim as a list, accepting both the string
// and the list form from the wire.
func (c Claims) Audience() []string {
	switch tv := c["aud"].(type) {
	case string:
		return []string{tv}
	case []string:
		return tv
	case []any:
		var aud []string
		for _, v := range tv {
			if s, ok := v.(string); ok {
				aud = append(aud, s)
			}
		}
		return aud
	default:
		return nil
	}
}
