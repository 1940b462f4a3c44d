package jwt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerInfo_Inference(t *testing.T) {
	sym, err := newSymmetricSigner(AlgHS384, []byte("seed"))
	require.NoError(t, err)
	si, err := NewSignerInfo(sym)
	require.NoError(t, err)
	assert.Equal(t, AlgHS384, si.Algorithm())

	_, err = newSymmetricSigner("HS128", []byte("seed"))
	assert.EqualError(t, err, "unsupported algorithm: HS128")

	rsa2048, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	si, err = NewSignerInfo(rsa2048)
	require.NoError(t, err)
	assert.Equal(t, AlgRS256, si.Algorithm())

	rsa3072, err := rsa.GenerateKey(rand.Reader, 3072)
	require.NoError(t, err)
	si, err = NewSignerInfo(rsa3072)
	require.NoError(t, err)
	assert.Equal(t, AlgRS384, si.Algorithm())

	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	si, err = NewSignerInfo(p384)
	require.NoError(t, err)
	assert.Equal(t, AlgES384, si.Algorithm())
}

func TestSignerInfo_ExplicitAlgorithm(t *testing.T) {
	rsa2048, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	si, err := NewSignerInfoWithAlgorithm(rsa2048, AlgRS512)
	require.NoError(t, err)
	assert.Equal(t, AlgRS512, si.Algorithm())

	_, err = NewSignerInfoWithAlgorithm(rsa2048, AlgES256)
	assert.Error(t, err)

	_, err = NewSignerInfoWithAlgorithm(rsa2048, "RS128")
	assert.EqualError(t, err, "unsupported algorithm: RS128")
}

func TestCheckAlgorithm(t *testing.T) {
	assert.NoError(t, checkAlgorithm(AlgHS256, nil))
	assert.NoError(t, checkAlgorithm(AlgES512, nil))
	assert.Error(t, checkAlgorithm(AlgNone, nil))
	assert.Error(t, checkAlgorithm("XX256", nil))

	assert.NoError(t, checkAlgorithm(AlgNone, []string{AlgNone}))
	assert.Error(t, checkAlgorithm(AlgHS256, []string{AlgRS256}))
}

func TestStampClaims(t *testing.T) {
	claims := Claims{}
	stampClaims(claims, &SignOptions{
		ExpiresIn: Dur(time.Minute),
		NotBefore: Dur(-time.Minute),
		Audience:  []string{"a"},
		Subject:   "s",
		Issuer:    "i",
		ID:        "j",
	})

	assert.Equal(t, "a", claims["aud"])
	assert.Equal(t, "s", claims["sub"])
	assert.Equal(t, "i", claims["iss"])
	assert.Equal(t, "j", claims["jti"])
	assert.NotNil(t, claims.Time("iat"))
	assert.True(t, claims.Time("exp").After(*claims.Time("nbf")))

	multi := Claims{}
	stampClaims(multi, &SignOptions{Audience: []string{"a", "b"}, NoTimestamp: true})
	assert.Equal(t, []string{"a", "b"}, multi["aud"])
	_, ok := multi["iat"]
	assert.False(t, ok)
}

func TestParseUnverified(t *testing.T) {
	p := &TokenParser{}

	_, err := p.ParseUnverified("one.two")
	assert.EqualError(t, err, "malformed token")

	_, err = p.ParseUnverified("!!!.e30.sig")
	assert.Error(t, err)

	// header must carry alg
	hdr := EncodeSegment([]byte(`{"typ":"JWT"}`))
	body := EncodeSegment([]byte(`{"a":1}`))
	_, err = p.ParseUnverified(hdr + "." + body + ".sig")
	assert.EqualError(t, err, "invalid token: no alg specified")

	hdr = EncodeSegment([]byte(`{"typ":"JWT","alg":"HS256"}`))
	tok, err := p.ParseUnverified(hdr + "." + body + ".sig")
	require.NoError(t, err)
	assert.Equal(t, AlgHS256, tok.SigningMethod)
	assert.Equal(t, 1, tok.Claims.Int("a"))
	assert.Equal(t, "sig", tok.Signature)
	assert.Equal(t, hdr+"."+body, tok.signingString())
}

func TestVerificationMaterial(t *testing.T) {
	tok := &Token{SigningMethod: AlgHS256, Header: map[string]any{}}

	_, err := verificationMaterial(t.Context(), tok, nil)
	assert.EqualError(t, err, "key material not provided")

	_, err = verificationMaterial(t.Context(), tok, &VerificationKey{})
	assert.EqualError(t, err, "symmetric secret not provided for HS256")

	tok.SigningMethod = AlgRS256
	_, err = verificationMaterial(t.Context(), tok, &VerificationKey{secret: []byte("s")})
	assert.EqualError(t, err, "public key not provided for RS256")
}
