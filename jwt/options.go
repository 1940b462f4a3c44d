package jwt

import "time"

// Supported signing algorithm names.
const (
	AlgNone  = "none"
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
	AlgRS256 = "RS256"
	AlgRS384 = "RS384"
	AlgRS512 = "RS512"
	AlgES256 = "ES256"
	AlgES384 = "ES384"
	AlgES512 = "ES512"
)

// Dur returns a pointer to d, for the optional duration fields of
// SignOptions.
func Dur(d time.Duration) *time.Duration {
	return &d
}

// SignOptions expresses the possible options for producing a token.
type SignOptions struct {
	// Algorithm selects the signing algorithm. When empty, the algorithm
	// is inferred from the key material: HS256 for symmetric secrets,
	// RS/ES variants by key size for asymmetric signers.
	Algorithm string

	// KeyID is placed into the kid header when set.
	KeyID string

	// ExpiresIn stamps the exp claim at now+*ExpiresIn. A zero or
	// negative offset produces an already expired token.
	ExpiresIn *time.Duration

	// NotBefore stamps the nbf claim at now+*NotBefore.
	NotBefore *time.Duration

	// Audience, Subject, Issuer and ID populate the aud, sub, iss and
	// jti claims when set.
	Audience []string
	Subject  string
	Issuer   string
	ID       string

	// NoTimestamp suppresses the iat claim.
	NoTimestamp bool

	// Header provides extra header fields merged over typ/alg/kid.
	Header map[string]any
}

// VerifyConfig expresses the possible options for validating a token.
type VerifyConfig struct {
	// Algorithms is the allow-list of acceptable alg header values.
	// When empty, all supported algorithms except "none" are accepted.
	Algorithms []string

	// ExpectedAudience validates that the aud claim contains this value.
	ExpectedAudience string
	// ExpectedIssuer validates the iss claim matches this value.
	ExpectedIssuer string
	// ExpectedSubject validates the sub claim matches this value.
	ExpectedSubject string
	// ExpectedID validates the jti claim matches this value.
	ExpectedID string

	// CurrentTime overrides the clock used for temporal checks.
	CurrentTime time.Time
	// Leeway is the tolerance applied to exp and nbf comparisons.
	Leeway time.Duration

	// IgnoreExpiration bypasses the exp check.
	IgnoreExpiration bool
	// IgnoreNotBefore bypasses the nbf check.
	IgnoreNotBefore bool

	// MaxAge rejects tokens whose iat is further in the past.
	//
	// Deprecated: use ExpiresIn at signing time. Kept for compatibility
	// with callers migrating from maxAge style verification.
	MaxAge time.Duration

	// JSONNumber preserves numeric claims as json.Number.
	JSONNumber bool
}

// now returns the clock reference for temporal checks.
func (c *VerifyConfig) now() time.Time {
	if !c.CurrentTime.IsZero() {
		return c.CurrentTime
	}
	return time.Now()
}

// DecodeOptions expresses the options for Decode.
type DecodeOptions struct {
	// Complete includes the header and signature in the result under
	// the "header", "payload" and "signature" keys.
	Complete bool
	// JSONNumber preserves numeric claims as json.Number.
	JSONNumber bool
}
