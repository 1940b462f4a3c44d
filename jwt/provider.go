package jwt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Signer specifies the token signer interface.
type Signer interface {
	// Sign returns a signed token for the claims.
	Sign(ctx context.Context, claims Claims) (string, error)
	// SignToken returns a signed token with registered claims.
	// An empty id is replaced with a generated unique identifier.
	SignToken(ctx context.Context, id, subject string, audience []string, expiry time.Duration) (string, Claims, error)
	// Issuer returns the iss claim value stamped into tokens.
	Issuer() string
	// TokenExpiry returns the default token expiry.
	TokenExpiry() time.Duration
}

// Parser specifies the token parser interface.
type Parser interface {
	// ParseToken verifies and returns the token claims.
	ParseToken(ctx context.Context, token string, cfg *VerifyConfig) (Claims, error)
}

// Provider specifies the token provider interface.
type Provider interface {
	Signer
	Parser
}

// Duration is a time.Duration that unmarshals from either a duration
// string ("8h") or nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	return d.unmarshal(strings.Trim(string(data), `"`))
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.unmarshal(value.Value)
}

func (d *Duration) unmarshal(s string) error {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.WithMessagef(err, "invalid duration: %q", s)
	}
	*d = Duration(v)
	return nil
}

// ProviderKey is a named seed of the symmetric key ring.
type ProviderKey struct {
	// ID of the key
	ID string `json:"id" yaml:"id"`
	// Seed of the key; the signing secret is derived from it.
	Seed string `json:"seed" yaml:"seed"`
}

// ProviderConfig provides the token provider configuration.
type ProviderConfig struct {
	// Issuer specifies the iss claim value.
	Issuer string `json:"issuer" yaml:"issuer"`
	// KeyID specifies ID of the current signing key.
	KeyID string `json:"kid" yaml:"kid"`
	// Keys specifies the symmetric key ring.
	Keys []*ProviderKey `json:"keys" yaml:"keys"`
	// PrivateKey specifies a PEM encoded asymmetric signing key,
	// used instead of the key ring.
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// TokenExpiry specifies the default token expiry.
	TokenExpiry Duration `json:"token_expiry" yaml:"token_expiry"`
}

// provider is the config driven Provider.
type provider struct {
	issuer        string
	kid           string
	expiry        time.Duration
	keys          map[string][]byte
	signingMethod jwtgo.SigningMethod
	privateKey    crypto.PrivateKey
	publicKey     crypto.PublicKey
}

// LoadProviderConfig returns configuration loaded from a file,
// JSON or YAML by extension.
func LoadProviderConfig(file string) (*ProviderConfig, error) {
	if file == "" {
		return &ProviderConfig{}, nil
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read file")
	}

	var config ProviderConfig
	if strings.HasSuffix(file, ".json") {
		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, errors.WithMessagef(err, "unable parse JSON: %s", file)
		}
	} else {
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return nil, errors.WithMessagef(err, "unable parse YAML: %s", file)
		}
	}

	if config.PrivateKey == "" {
		if config.KeyID == "" {
			return nil, errors.Errorf("missing kid: %q", file)
		}
		if len(config.Keys) == 0 {
			return nil, errors.Errorf("missing keys: %q", file)
		}
	}
	return &config, nil
}

// LoadProvider returns a provider loaded from a configuration file.
func LoadProvider(cfgfile string) (Provider, error) {
	cfg, err := LoadProviderConfig(cfgfile)
	if err != nil {
		return nil, err
	}
	return NewProvider(cfg)
}

// MustNewProvider returns new provider or panics.
func MustNewProvider(cfg *ProviderConfig) Provider {
	p, err := NewProvider(cfg)
	if err != nil {
		logger.Panicf("unable to create provider: %+v", err)
	}
	return p
}

// NewProvider returns new provider.
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	p := &provider{
		issuer: cfg.Issuer,
		kid:    cfg.KeyID,
		expiry: time.Duration(cfg.TokenExpiry),
		keys:   map[string][]byte{},
	}
	if p.issuer == "" {
		return nil, errors.Errorf("issuer not configured")
	}
	if p.expiry == 0 {
		p.expiry = 8 * time.Hour
	}

	if cfg.PrivateKey != "" {
		pvk, err := parsePrivateKeyPEM([]byte(cfg.PrivateKey), nil)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to load private key")
		}
		signer, ok := pvk.(crypto.Signer)
		if !ok {
			return nil, errors.Errorf("key does not support signing: %T", pvk)
		}
		p.privateKey = pvk
		p.publicKey = signer.Public()
		p.signingMethod, err = signingMethodForKey(p.publicKey)
		if err != nil {
			return nil, err
		}
	} else {
		if len(cfg.Keys) == 0 {
			return nil, errors.Errorf("keys not provided")
		}
		for _, key := range cfg.Keys {
			sum := sha256.Sum256([]byte(key.Seed))
			p.keys[key.ID] = sum[:]
		}
		if p.kid == "" {
			p.kid = cfg.Keys[len(cfg.Keys)-1].ID
		}
		p.signingMethod = jwtgo.SigningMethodHS256
	}
	return p, nil
}

// signingMethodForKey picks the JWA method matching the key type and
// size.
func signingMethodForKey(pub crypto.PublicKey) (jwtgo.SigningMethod, error) {
	switch typ := pub.(type) {
	case *rsa.PublicKey:
		keySize := typ.N.BitLen()
		switch {
		case keySize >= 4096:
			return jwtgo.SigningMethodRS512, nil
		case keySize >= 3072:
			return jwtgo.SigningMethodRS384, nil
		default:
			return jwtgo.SigningMethodRS256, nil
		}
	case *ecdsa.PublicKey:
		switch typ.Curve {
		case elliptic.P521():
			return jwtgo.SigningMethodES512, nil
		case elliptic.P384():
			return jwtgo.SigningMethodES384, nil
		default:
			return jwtgo.SigningMethodES256, nil
		}
	default:
		return nil, errors.Errorf("public key not supported: %T", typ)
	}
}

// Issuer returns the iss claim value stamped into tokens.
func (p *provider) Issuer() string {
	return p.issuer
}

// TokenExpiry returns the default token expiry.
func (p *provider) TokenExpiry() time.Duration {
	return p.expiry
}

// currentKey returns the key currently used to sign tokens.
func (p *provider) currentKey() (string, []byte) {
	if key, ok := p.keys[p.kid]; ok {
		return p.kid, key
	}
	return "", nil
}

// Sign returns a signed token for the claims.
func (p *provider) Sign(_ context.Context, claims Claims) (string, error) {
	token := jwtgo.NewWithClaims(p.signingMethod, jwtgo.MapClaims(claims))

	var key any
	if p.privateKey != nil {
		key = p.privateKey
	} else {
		var kid string
		kid, key = p.currentKey()
		if kid == "" {
			return "", errors.Errorf("signing key not found: %q", p.kid)
		}
		token.Header["kid"] = kid
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", errors.WithMessage(err, "failed to sign token")
	}
	return signed, nil
}

// SignToken returns a signed token with registered claims.
func (p *provider) SignToken(ctx context.Context, id, subject string, audience []string, expiry time.Duration) (string, Claims, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if expiry == 0 {
		expiry = p.expiry
	}

	claims := CreateClaims(id, subject, p.issuer, audience, expiry, nil)
	token, err := p.Sign(ctx, claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ParseToken verifies and returns the token claims.
func (p *provider) ParseToken(_ context.Context, authorization string, cfg *VerifyConfig) (Claims, error) {
	if cfg == nil {
		cfg = &VerifyConfig{}
	}

	// Claim checks are delegated to validateClaims so that the bypass
	// flags and typed errors behave the same as in Verify.
	claims := jwtgo.MapClaims{}
	parser := jwtgo.NewParser(
		jwtgo.WithJSONNumber(),
		jwtgo.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(authorization, claims, func(token *jwtgo.Token) (any, error) {
		logger.KV(xlog.TRACE, "alg", token.Header["alg"])

		if _, ok := token.Method.(*jwtgo.SigningMethodHMAC); ok {
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.Errorf("missing kid")
			}
			if key, ok := p.keys[kid]; ok {
				return key, nil
			}
			return nil, errors.Errorf("unexpected kid")
		}
		if p.publicKey == nil {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.publicKey, nil
	})
	if err != nil {
		return nil, NewError("unable to verify token", err)
	}
	if !token.Valid {
		return nil, NewError("unable to verify token", nil)
	}

	result := Claims(claims)
	expected := *cfg
	if expected.ExpectedIssuer == "" {
		expected.ExpectedIssuer = p.issuer
	}
	if err := validateClaims(result, &expected); err != nil {
		return nil, err
	}
	return result, nil
}
