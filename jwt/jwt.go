package jwt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/sigil-dev/sigil/metricskey"
)

var logger = xlog.NewPackageLogger("github.com/sigil-dev/sigil", "jwt")

// Sign produces a compact serialized token for the payload. The payload
// may be Claims, a map, or a struct marshalable to a JSON object; use
// SignRaw for opaque string payloads. All failures are reported as
// *Error.
func Sign(payload any, key *SigningKey, opt *SignOptions) (string, error) {
	return sign(payload, key, opt)
}

// SignRaw produces a token over an opaque payload without any claim
// stamping. Claim related options must not be set.
func SignRaw(payload []byte, key *SigningKey, opt *SignOptions) (string, error) {
	if opt != nil && (opt.ExpiresIn != nil || opt.NotBefore != nil ||
		len(opt.Audience) > 0 || opt.Subject != "" || opt.Issuer != "" || opt.ID != "") {
		return "", NewError("claim options are not applicable to a raw payload", nil)
	}
	return signSerialized(payload, key, opt)
}

func sign(payload any, key *SigningKey, opt *SignOptions) (string, error) {
	if opt == nil {
		opt = &SignOptions{}
	}

	claims := Claims{}
	if err := claims.Add(payload); err != nil {
		return "", NewError("unable to serialize payload", err)
	}
	stampClaims(claims, opt)

	raw, err := json.Marshal(claims)
	if err != nil {
		return "", NewError("unable to serialize payload", errors.WithStack(err))
	}
	return signSerialized(raw, key, opt)
}

func signSerialized(payload []byte, key *SigningKey, opt *SignOptions) (string, error) {
	if opt == nil {
		opt = &SignOptions{}
	}

	si, err := signerInfo(key, opt.Algorithm)
	if err != nil {
		return "", NewError("unable to sign token", err)
	}

	algo := AlgNone
	if si != nil {
		algo = si.Algorithm()
	}
	defer metricskey.PerfTokenOperation.MeasureSince(time.Now(), algo, "sign")

	headers := map[string]any{}
	for k, v := range opt.Header {
		headers[k] = v
	}
	if opt.KeyID != "" {
		headers["kid"] = opt.KeyID
	}

	token, err := si.signJWT(payload, headers)
	if err != nil {
		return "", NewError("unable to sign token", err)
	}
	logger.KV(xlog.TRACE, "alg", algo, "len", len(token))
	return token, nil
}

// stampClaims applies the registered claim options over the payload
// claims.
func stampClaims(claims Claims, opt *SignOptions) {
	now := time.Now().UTC()
	if !opt.NoTimestamp {
		claims["iat"] = now.Unix()
	}
	if opt.ExpiresIn != nil {
		claims["exp"] = now.Add(*opt.ExpiresIn).Unix()
	}
	if opt.NotBefore != nil {
		claims["nbf"] = now.Add(*opt.NotBefore).Unix()
	}
	if len(opt.Audience) > 0 {
		if len(opt.Audience) == 1 {
			claims["aud"] = opt.Audience[0]
		} else {
			claims["aud"] = opt.Audience
		}
	}
	if opt.Subject != "" {
		claims["sub"] = opt.Subject
	}
	if opt.Issuer != "" {
		claims["iss"] = opt.Issuer
	}
	if opt.ID != "" {
		claims["jti"] = opt.ID
	}
}

// signerInfo resolves the signer for the key material and requested
// algorithm.
func signerInfo(key *SigningKey, algo string) (*SignerInfo, error) {
	if algo == AlgNone {
		if key != nil && (key.signer != nil || len(key.secret) > 0) {
			return nil, errors.Errorf("key material must not be provided for the none algorithm")
		}
		return nil, nil
	}
	if key == nil {
		return nil, errors.Errorf("key material not provided")
	}

	if key.signer != nil {
		return NewSignerInfoWithAlgorithm(key.signer, algo)
	}

	if algo == "" {
		algo = AlgHS256
	}
	if !strings.HasPrefix(algo, "HS") {
		return nil, errors.Errorf("algorithm %q is incompatible with a symmetric secret", algo)
	}
	signer, err := newSymmetricSigner(algo, key.secret)
	if err != nil {
		return nil, err
	}
	return NewSignerInfo(signer)
}

// Verify validates the token signature and claims, and returns the
// claims. Temporal failures are reported as *ExpiredError and
// *NotBeforeError, everything else as *Error.
func Verify(token string, key *VerificationKey, cfg *VerifyConfig) (Claims, error) {
	tok, err := verifyToken(context.Background(), token, key, cfg)
	if err != nil {
		return nil, err
	}
	if tok.Claims == nil {
		return nil, NewError("payload is not a claims object, use VerifyRaw", nil)
	}
	return tok.Claims, nil
}

// VerifyRaw validates the token signature and returns the opaque
// payload bytes. No claim checks are performed.
func VerifyRaw(token string, key *VerificationKey, cfg *VerifyConfig) ([]byte, error) {
	tok, err := verifyToken(context.Background(), token, key, cfg)
	if err != nil {
		return nil, err
	}
	return tok.Payload, nil
}

func verifyToken(ctx context.Context, token string, key *VerificationKey, cfg *VerifyConfig) (*Token, error) {
	if cfg == nil {
		cfg = &VerifyConfig{}
	}

	parser := &TokenParser{JSONNumber: cfg.JSONNumber}
	tok, err := parser.ParseUnverified(token)
	if err != nil {
		return nil, NewError("unable to verify token", err)
	}

	defer metricskey.PerfTokenOperation.MeasureSince(time.Now(), tok.SigningMethod, "verify")

	if err := checkAlgorithm(tok.SigningMethod, cfg.Algorithms); err != nil {
		return nil, NewError("unable to verify token", err)
	}

	material, err := verificationMaterial(ctx, tok, key)
	if err != nil {
		return nil, NewError("unable to verify token", err)
	}

	if err := VerifySignature(tok.SigningMethod, tok.signingString(), tok.Signature, material); err != nil {
		return nil, NewError("unable to verify token", err)
	}

	if tok.Claims != nil {
		if err := validateClaims(tok.Claims, cfg); err != nil {
			return nil, err
		}
	}

	tok.Valid = true
	return tok, nil
}

// checkAlgorithm enforces the allow-list. The none algorithm is never
// accepted implicitly.
func checkAlgorithm(algo string, allowed []string) error {
	if len(allowed) == 0 {
		if algo == AlgNone {
			return errors.Errorf("none algorithm is not allowed")
		}
		if _, ok := hashForAlgo[algo]; !ok {
			return errors.Errorf("unsupported algorithm: %s", algo)
		}
		return nil
	}
	for _, a := range allowed {
		if a == algo {
			return nil
		}
	}
	return errors.Errorf("algorithm not allowed: %s", algo)
}

// verificationMaterial resolves the key material needed by
// VerifySignature for the parsed token.
func verificationMaterial(ctx context.Context, tok *Token, key *VerificationKey) (any, error) {
	if tok.SigningMethod == AlgNone {
		return nil, nil
	}
	if key == nil {
		return nil, errors.Errorf("key material not provided")
	}

	if strings.HasPrefix(tok.SigningMethod, "HS") {
		if len(key.secret) == 0 {
			return nil, errors.Errorf("symmetric secret not provided for %s", tok.SigningMethod)
		}
		return key.secret, nil
	}

	if key.public != nil {
		return key.public, nil
	}
	if key.keySet != nil {
		kid, _ := tok.Header["kid"].(string)
		resolved, err := key.keySet.GetKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		return publicKeyOf(resolved), nil
	}
	return nil, errors.Errorf("public key not provided for %s", tok.SigningMethod)
}

// validateClaims applies the temporal checks and claim expectations.
func validateClaims(claims Claims, cfg *VerifyConfig) error {
	now := cfg.now()

	if !cfg.IgnoreExpiration {
		if exp := claims.Time("exp"); exp != nil && now.After(exp.Add(cfg.Leeway)) {
			return newExpiredError(*exp)
		}
		if cfg.MaxAge > 0 {
			if iat := claims.Time("iat"); iat != nil {
				limit := iat.Add(cfg.MaxAge)
				if now.After(limit.Add(cfg.Leeway)) {
					return newExpiredError(limit)
				}
			}
		}
	}
	if !cfg.IgnoreNotBefore {
		if nbf := claims.Time("nbf"); nbf != nil && now.Add(cfg.Leeway).Before(*nbf) {
			return newNotBeforeError(*nbf)
		}
	}

	if cfg.ExpectedIssuer != "" && claims.String("iss") != cfg.ExpectedIssuer {
		return NewError("invalid issuer: "+claims.String("iss"), nil)
	}
	if cfg.ExpectedSubject != "" && claims.String("sub") != cfg.ExpectedSubject {
		return NewError("invalid subject: "+claims.String("sub"), nil)
	}
	if cfg.ExpectedID != "" && claims.String("jti") != cfg.ExpectedID {
		return NewError("invalid jti: "+claims.String("jti"), nil)
	}
	if cfg.ExpectedAudience != "" {
		found := false
		for _, aud := range claims.Audience() {
			if aud == cfg.ExpectedAudience {
				found = true
				break
			}
		}
		if !found {
			return NewError("invalid audience: "+claims.String("aud"), nil)
		}
	}
	return nil
}

// Decode parses the token without verifying the signature. It returns
// nil on unparseable input, never an error. For a non-object payload
// the result is nil unless opt.Complete is set; see DecodeRaw.
func Decode(token string, opt *DecodeOptions) Claims {
	if opt == nil {
		opt = &DecodeOptions{}
	}

	parser := &TokenParser{JSONNumber: opt.JSONNumber}
	tok, err := parser.ParseUnverified(token)
	if err != nil {
		logger.KV(xlog.TRACE, "reason", "unparseable", "err", err.Error())
		return nil
	}

	if opt.Complete {
		var payload any = tok.Claims
		if tok.Claims == nil {
			payload = string(tok.Payload)
		}
		return Claims{
			"header":    tok.Header,
			"payload":   payload,
			"signature": tok.Signature,
		}
	}
	return tok.Claims
}

// DecodeRaw parses the token without verifying the signature and
// returns the raw payload bytes, or nil on unparseable input.
func DecodeRaw(token string) []byte {
	parser := &TokenParser{}
	tok, err := parser.ParseUnverified(token)
	if err != nil {
		return nil
	}
	return tok.Payload
}
