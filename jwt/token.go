package jwt

import "encoding/base64"

// Token is a decoded JWT.
type Token struct {
	Raw           string         // The raw token. Populated when a token is parsed.
	SigningMethod string         // The signing method used or to be used.
	Header        map[string]any // The first segment of the token.
	Claims        Claims         // The second segment, when it is a claims object.
	Payload       []byte         // The raw second segment.
	Signature     string         // The third segment. Populated when a token is parsed.
	Valid         bool           // Populated when a token is verified.
}

// DecodeSegment JWT specific base64url encoding with padding stripped
func DecodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(seg)
}

// EncodeSegment returns JWT specific base64url encoding with padding stripped
func EncodeSegment(seg []byte) string {
	return base64.RawURLEncoding.EncodeToString(seg)
}
