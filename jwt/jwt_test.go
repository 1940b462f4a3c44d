package jwt_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sigil-dev/sigil/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symKey(t *testing.T, secret string) *jwt.SigningKey {
	t.Helper()
	key, err := jwt.NewSymmetricKey(secret)
	require.NoError(t, err)
	return key
}

func Test_SignVerify_RoundTrip(t *testing.T) {
	key := symKey(t, "super secret seed")

	payload := jwt.Claims{
		"email": "denis@ekspand.com",
		"count": 42,
	}
	token, err := jwt.Sign(payload, key, &jwt.SignOptions{
		ExpiresIn: jwt.Dur(5 * time.Minute),
		Audience:  []string{"sigil.dev"},
		Subject:   "denis@ekspand.com",
		Issuer:    "issuer.sigil.dev",
		ID:        "123",
	})
	require.NoError(t, err)

	claims, err := jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		ExpectedAudience: "sigil.dev",
		ExpectedIssuer:   "issuer.sigil.dev",
		ExpectedSubject:  "denis@ekspand.com",
		ExpectedID:       "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "denis@ekspand.com", claims.String("email"))
	assert.Equal(t, 42, claims.Int("count"))
	assert.Equal(t, "123", claims.String("jti"))
	assert.NotNil(t, claims.Time("iat"))
	assert.NotNil(t, claims.Time("exp"))
}

func Test_Verify_WrongKey(t *testing.T) {
	key := symKey(t, "seed one")
	other := symKey(t, "seed two")

	token, err := jwt.Sign(jwt.Claims{"role": "admin"}, key, nil)
	require.NoError(t, err)

	_, err = jwt.Verify(token, other.VerificationKey(), nil)
	require.Error(t, err)
	assert.EqualError(t, err, "unable to verify token: invalid signature")

	var terr *jwt.Error
	assert.True(t, errors.As(err, &terr))
	assert.NotNil(t, terr.Unwrap())
}

func Test_Verify_Expired(t *testing.T) {
	key := symKey(t, "expiry seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{
		ExpiresIn: jwt.Dur(0),
	})
	require.NoError(t, err)

	cfg := &jwt.VerifyConfig{
		CurrentTime: time.Now().Add(time.Minute),
	}
	_, err = jwt.Verify(token, key.VerificationKey(), cfg)
	require.Error(t, err)

	var exp *jwt.ExpiredError
	require.True(t, errors.As(err, &exp))
	assert.False(t, exp.ExpiredAt.IsZero())
	assert.True(t, exp.ExpiredAt.Before(time.Now().Add(time.Second)))

	// bypassed
	cfg.IgnoreExpiration = true
	_, err = jwt.Verify(token, key.VerificationKey(), cfg)
	assert.NoError(t, err)

	// within leeway
	claims, err := jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		Leeway:      5 * time.Minute,
		CurrentTime: time.Now().Add(time.Minute),
	})
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func Test_Verify_NotBefore(t *testing.T) {
	key := symKey(t, "nbf seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{
		NotBefore: jwt.Dur(time.Hour),
	})
	require.NoError(t, err)

	_, err = jwt.Verify(token, key.VerificationKey(), nil)
	require.Error(t, err)

	var nbf *jwt.NotBeforeError
	require.True(t, errors.As(err, &nbf))
	assert.True(t, nbf.NotBefore.After(time.Now()))

	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		IgnoreNotBefore: true,
	})
	assert.NoError(t, err)
}

func Test_Verify_MaxAge(t *testing.T) {
	key := symKey(t, "max age seed")

	token, err := jwt.Sign(jwt.Claims{}, key, nil)
	require.NoError(t, err)

	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		MaxAge:      time.Minute,
		CurrentTime: time.Now().Add(time.Hour),
	})
	require.Error(t, err)

	var exp *jwt.ExpiredError
	assert.True(t, errors.As(err, &exp))

	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		MaxAge: time.Minute,
	})
	assert.NoError(t, err)
}

func Test_Verify_Expectations(t *testing.T) {
	key := symKey(t, "claims seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{
		Audience: []string{"aud1", "aud2"},
		Issuer:   "iss1",
		Subject:  "sub1",
	})
	require.NoError(t, err)

	vk := key.VerificationKey()

	_, err = jwt.Verify(token, vk, &jwt.VerifyConfig{ExpectedAudience: "aud2"})
	assert.NoError(t, err)

	_, err = jwt.Verify(token, vk, &jwt.VerifyConfig{ExpectedAudience: "other"})
	assert.Error(t, err)

	_, err = jwt.Verify(token, vk, &jwt.VerifyConfig{ExpectedIssuer: "iss2"})
	assert.EqualError(t, err, "invalid issuer: iss1")

	_, err = jwt.Verify(token, vk, &jwt.VerifyConfig{ExpectedSubject: "sub2"})
	assert.EqualError(t, err, "invalid subject: sub1")
}

func Test_Sign_None(t *testing.T) {
	token, err := jwt.Sign(jwt.Claims{"v": "1"}, nil, &jwt.SignOptions{
		Algorithm:   jwt.AlgNone,
		NoTimestamp: true,
	})
	require.NoError(t, err)

	// none must be allowed explicitly
	_, err = jwt.Verify(token, nil, nil)
	require.Error(t, err)

	claims, err := jwt.Verify(token, nil, &jwt.VerifyConfig{
		Algorithms: []string{jwt.AlgNone},
	})
	require.NoError(t, err)
	assert.Equal(t, "1", claims.String("v"))

	// key material must not be provided
	_, err = jwt.Sign(jwt.Claims{}, symKey(t, "seed"), &jwt.SignOptions{Algorithm: jwt.AlgNone})
	assert.Error(t, err)
}

func Test_Sign_AlgorithmAllowList(t *testing.T) {
	key := symKey(t, "list seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{Algorithm: jwt.AlgHS384})
	require.NoError(t, err)

	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		Algorithms: []string{jwt.AlgHS256},
	})
	assert.EqualError(t, err, "unable to verify token: algorithm not allowed: HS384")

	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		Algorithms: []string{jwt.AlgHS256, jwt.AlgHS384},
	})
	assert.NoError(t, err)
}

func Test_Sign_RSA(t *testing.T) {
	pvk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key := jwt.NewSigningKeyFromSigner(pvk)
	token, err := jwt.Sign(jwt.Claims{"typ": "rsa"}, key, nil)
	require.NoError(t, err)

	claims, err := jwt.Verify(token, key.VerificationKey(), nil)
	require.NoError(t, err)
	assert.Equal(t, "rsa", claims.String("typ"))

	// explicit hash upgrade on the same key
	token, err = jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{Algorithm: jwt.AlgRS384})
	require.NoError(t, err)
	_, err = jwt.Verify(token, key.VerificationKey(), &jwt.VerifyConfig{
		Algorithms: []string{jwt.AlgRS384},
	})
	assert.NoError(t, err)

	// HMAC is not compatible with an RSA key
	_, err = jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{Algorithm: jwt.AlgHS256})
	assert.Error(t, err)

	// wrong public key
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := jwt.NewVerificationKey(&other.PublicKey)
	require.NoError(t, err)
	_, err = jwt.Verify(token, otherKey, nil)
	assert.Error(t, err)
}

func Test_Sign_ECDSA(t *testing.T) {
	pvk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	key := jwt.NewSigningKeyFromSigner(pvk)
	token, err := jwt.Sign(jwt.Claims{"typ": "ec"}, key, &jwt.SignOptions{KeyID: "ec1"})
	require.NoError(t, err)

	claims, err := jwt.Verify(token, key.VerificationKey(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ec", claims.String("typ"))

	// the curve fixes the hash
	_, err = jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{Algorithm: jwt.AlgES512})
	assert.Error(t, err)
}

func Test_Sign_PEMKeys(t *testing.T) {
	pvk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(pvk)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	key, err := jwt.NewSigningKeyFromPEM(keyPEM, nil)
	require.NoError(t, err)

	token, err := jwt.Sign(jwt.Claims{"pem": true}, key, nil)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&pvk.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	vk, err := jwt.NewVerificationKeyFromPEM(pubPEM)
	require.NoError(t, err)

	claims, err := jwt.Verify(token, vk, nil)
	require.NoError(t, err)
	assert.True(t, claims.Bool("pem"))

	_, err = jwt.NewSigningKeyFromPEM([]byte("not pem"), nil)
	assert.Error(t, err)
	_, err = jwt.NewVerificationKeyFromPEM([]byte("not pem"))
	assert.Error(t, err)
}

func Test_Decode(t *testing.T) {
	assert.Nil(t, jwt.Decode("", nil))
	assert.Nil(t, jwt.Decode("garbage", nil))
	assert.Nil(t, jwt.Decode("a.b.c", nil))
	assert.Nil(t, jwt.Decode("a.b", nil))

	key := symKey(t, "decode seed")
	token, err := jwt.Sign(jwt.Claims{"email": "d@e.com"}, key, &jwt.SignOptions{NoTimestamp: true})
	require.NoError(t, err)

	claims := jwt.Decode(token, nil)
	require.NotNil(t, claims)
	assert.Equal(t, "d@e.com", claims.String("email"))

	complete := jwt.Decode(token, &jwt.DecodeOptions{Complete: true})
	require.NotNil(t, complete)
	assert.NotNil(t, complete["header"])
	assert.NotNil(t, complete["payload"])
	assert.NotEmpty(t, complete["signature"])
}

func Test_SignRaw(t *testing.T) {
	key := symKey(t, "raw seed")

	token, err := jwt.SignRaw([]byte("opaque payload"), key, nil)
	require.NoError(t, err)

	payload, err := jwt.VerifyRaw(token, key.VerificationKey(), nil)
	require.NoError(t, err)
	assert.Equal(t, "opaque payload", string(payload))

	// claims access requires an object payload
	_, err = jwt.Verify(token, key.VerificationKey(), nil)
	assert.Error(t, err)

	// claim options do not apply to raw payloads
	_, err = jwt.SignRaw([]byte("x"), key, &jwt.SignOptions{Subject: "sub"})
	assert.Error(t, err)

	assert.Equal(t, []byte("opaque payload"), jwt.DecodeRaw(token))
	assert.Nil(t, jwt.DecodeRaw("garbage"))
}

func Test_Sign_NoTimestamp(t *testing.T) {
	key := symKey(t, "iat seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{NoTimestamp: true})
	require.NoError(t, err)

	claims := jwt.Decode(token, nil)
	require.NotNil(t, claims)
	_, ok := claims["iat"]
	assert.False(t, ok)
}

func Test_Sign_KidHeader(t *testing.T) {
	key := symKey(t, "kid seed")

	token, err := jwt.Sign(jwt.Claims{}, key, &jwt.SignOptions{
		KeyID:  "key-1",
		Header: map[string]any{"cty": "JWT"},
	})
	require.NoError(t, err)

	complete := jwt.Decode(token, &jwt.DecodeOptions{Complete: true})
	require.NotNil(t, complete)
	header := complete["header"].(map[string]any)
	assert.Equal(t, "key-1", header["kid"])
	assert.Equal(t, "JWT", header["cty"])
	assert.Equal(t, "HS256", header["alg"])
}
