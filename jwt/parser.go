package jwt

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// TokenParser splits and decodes a compact serialized token without
// verifying the signature.
type TokenParser struct {
	// JSONNumber preserves numeric claims as json.Number.
	JSONNumber bool
}

// ParseUnverified parses the token but doesn't validate the signature
// or any claims. The claims segment is decoded into Token.Claims when
// it is a JSON object; the raw segment bytes are always available in
// Token.Payload.
func (p *TokenParser) ParseUnverified(tokenString string) (*Token, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, errors.Errorf("malformed token")
	}

	token := &Token{
		Raw:       tokenString,
		Signature: parts[2],
	}

	headerBytes, err := DecodeSegment(parts[0])
	if err != nil {
		return nil, errors.WithMessage(err, "failed to decode header")
	}
	if err = json.Unmarshal(headerBytes, &token.Header); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal header")
	}

	token.Payload, err = DecodeSegment(parts[1])
	if err != nil {
		return nil, errors.WithMessage(err, "failed to decode payload")
	}

	// A non-object payload is kept raw; callers decide whether that
	// is acceptable.
	if len(token.Payload) > 0 && token.Payload[0] == '{' {
		claims := Claims{}
		dec := json.NewDecoder(bytes.NewReader(token.Payload))
		if p.JSONNumber {
			dec.UseNumber()
		}
		if err := dec.Decode(&claims); err != nil {
			return nil, errors.WithMessage(err, "failed to decode claims")
		}
		token.Claims = claims
	}

	method, ok := token.Header["alg"].(string)
	if !ok {
		return nil, errors.Errorf("invalid token: no alg specified")
	}
	token.SigningMethod = method

	return token, nil
}

// signingString returns the signed portion of the raw token.
func (t *Token) signingString() string {
	idx := strings.LastIndex(t.Raw, ".")
	return t.Raw[:idx]
}
