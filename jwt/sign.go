package jwt

/*
MIT License.

Copyright 2022 Denis Issoupov

Permission is hereby granted, free of charge, to any person obtaining
a copy of this software and associated documentation files (the
"Software"), to deal in the Software without restriction, including
without limitation the rights to use, copy, modify, merge, publish,
distribute, sublicense, and/or sell copies of the Software, and to
permit persons to whom the Software is furnished to do so, subject to
the following conditions:

The above copyright notice and this permission notice shall be
included in all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*/

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

type symSigner struct {
	hash crypto.Hash
	algo string
	key  []byte
}

func newSymmetricSigner(algo string, key []byte) (crypto.Signer, error) {
	s := &symSigner{
		algo: algo,
		key:  key,
	}

	switch algo {
	case AlgHS256:
		s.hash = crypto.SHA256
	case AlgHS384:
		s.hash = crypto.SHA384
	case AlgHS512:
		s.hash = crypto.SHA512
	default:
		return nil, errors.Errorf("unsupported algorithm: %s", algo)
	}
	return s, nil
}

// Public implements crypto.Signer
func (s *symSigner) Public() crypto.PublicKey {
	return s
}

// Sign implements crypto.Signer
func (s *symSigner) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) (signature []byte, err error) {
	hash := s.hash
	if opts != nil {
		hash = opts.HashFunc()
	}

	h := hmac.New(hash.New, s.key)
	h.Write(digest)

	return h.Sum(nil), nil
}

type hasher struct {
	hash crypto.Hash
}

func (h hasher) HashFunc() crypto.Hash {
	return h.hash
}

// SignerInfo describes the signer and algorithm used to produce a
// token signature.
type SignerInfo struct {
	hasher  hasher
	keySize int
	algo    string
	signer  crypto.Signer
}

// Algorithm returns the JWA name of the signing algorithm.
func (si *SignerInfo) Algorithm() string {
	return si.algo
}

// NewSignerInfo returns *SignerInfo with the algorithm inferred from
// the key type and size.
func NewSignerInfo(signer crypto.Signer) (*SignerInfo, error) {
	si := &SignerInfo{
		signer: signer,
	}

	switch typ := signer.Public().(type) {
	case *symSigner:
		si.keySize = len(typ.key) * 8
		si.algo = typ.algo
		si.hasher.hash = typ.hash
	case *rsa.PublicKey:
		si.keySize = typ.N.BitLen()
		switch {
		case si.keySize >= 4096:
			si.algo = AlgRS512
			si.hasher.hash = crypto.SHA512
		case si.keySize >= 3072:
			si.algo = AlgRS384
			si.hasher.hash = crypto.SHA384
		default:
			si.algo = AlgRS256
			si.hasher.hash = crypto.SHA256
		}
	case *ecdsa.PublicKey:
		switch typ.Curve {
		case elliptic.P521():
			si.algo = AlgES512
			si.hasher.hash = crypto.SHA512
		case elliptic.P384():
			si.algo = AlgES384
			si.hasher.hash = crypto.SHA384
		default:
			si.algo = AlgES256
			si.hasher.hash = crypto.SHA256
		}
		si.keySize = typ.Curve.Params().BitSize
	default:
		return nil, errors.Errorf("public key not supported: %T", typ)
	}
	return si, nil
}

// NewSignerInfoWithAlgorithm returns *SignerInfo for an explicitly
// requested algorithm, or an error when the key material is
// incompatible with it.
func NewSignerInfoWithAlgorithm(signer crypto.Signer, algo string) (*SignerInfo, error) {
	si, err := NewSignerInfo(signer)
	if err != nil {
		return nil, err
	}
	if algo == "" || algo == si.algo {
		return si, nil
	}

	h, ok := hashForAlgo[algo]
	if !ok {
		return nil, errors.Errorf("unsupported algorithm: %s", algo)
	}
	// Only the RSA family allows a hash other than the one inferred
	// from the key; the ECDSA hash is fixed by the curve.
	if !strings.HasPrefix(algo, "RS") || !strings.HasPrefix(si.algo, "RS") {
		return nil, errors.Errorf("algorithm %q is incompatible with the key material for %q", algo, si.algo)
	}
	si.algo = algo
	si.hasher.hash = h
	return si, nil
}

func (si *SignerInfo) sign(signingString string) (string, error) {
	if strings.HasPrefix(si.algo, "HS") {
		sig, err := si.signer.Sign(nil, []byte(signingString), nil)
		if err != nil {
			return "", err
		}
		return EncodeSegment(sig), nil
	}

	h := si.hasher.hash.New()
	h.Write([]byte(signingString))

	sig, err := si.signer.Sign(rand.Reader, h.Sum(nil), si.hasher)
	if err != nil {
		return "", err
	}

	switch si.algo {
	case AlgES256, AlgES384, AlgES512:
		// for ECDSA, signature is encoded ASN1{r,s}
		var (
			r, s  = &big.Int{}, &big.Int{}
			inner cryptobyte.String
		)
		input := cryptobyte.String(sig)
		if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
			!input.Empty() ||
			!inner.ReadASN1Integer(r) ||
			!inner.ReadASN1Integer(s) ||
			!inner.Empty() {
			return "", errors.Errorf("unable to decode ECDSA signature")
		}

		curveBits := si.keySize
		keyBytes := curveBits / 8
		if curveBits%8 > 0 {
			keyBytes++
		}

		// We serialize the outputs (r and s) into big-endian byte arrays
		// padded with zeros on the left to make sure the sizes work out.
		// Output must be 2*keyBytes long.
		out := make([]byte, 2*keyBytes)
		r.FillBytes(out[0:keyBytes])
		s.FillBytes(out[keyBytes:])

		return EncodeSegment(out), nil

	case AlgRS256, AlgRS384, AlgRS512:
		return EncodeSegment(sig), nil
	}
	return "", errors.Errorf("unsupported algorithm: %s", si.algo)
}

// signJWT serializes header and claims and appends the signature
// segment. For the "none" algorithm the signature segment is empty.
func (si *SignerInfo) signJWT(payload []byte, headers map[string]any) (string, error) {
	algo := AlgNone
	if si != nil {
		algo = si.algo
	}
	header := map[string]any{
		"typ": "JWT",
		"alg": algo,
	}
	for k, v := range headers {
		header[k] = v
	}

	jsonHeader, err := json.Marshal(header)
	if err != nil {
		return "", errors.WithStack(err)
	}

	sstr := EncodeSegment(jsonHeader) + "." + EncodeSegment(payload)
	if si == nil {
		return sstr + ".", nil
	}

	sig, err := si.sign(sstr)
	if err != nil {
		return "", err
	}
	return sstr + "." + sig, nil
}

var hashForAlgo = map[string]crypto.Hash{
	AlgHS256: crypto.SHA256,
	AlgHS384: crypto.SHA384,
	AlgHS512: crypto.SHA512,
	AlgES256: crypto.SHA256,
	AlgES384: crypto.SHA384,
	AlgES512: crypto.SHA512,
	AlgRS256: crypto.SHA256,
	AlgRS384: crypto.SHA384,
	AlgRS512: crypto.SHA512,
}

var curveForAlgo = map[string]elliptic.Curve{
	AlgES256: elliptic.P256(),
	AlgES384: elliptic.P384(),
	AlgES512: elliptic.P521(),
}

// VerifySignature returns error if the signature is invalid for the
// provided signing string and key.
func VerifySignature(algo, signingString, signature string, key any) error {
	if algo == AlgNone {
		if signature != "" {
			return errors.Errorf("unexpected signature for none algorithm")
		}
		return nil
	}

	if strings.HasPrefix(algo, "HS") {
		secret, ok := key.([]byte)
		if !ok {
			return errors.Errorf("invalid key type %T for %s signature", key, algo)
		}

		signer, err := newSymmetricSigner(algo, secret)
		if err != nil {
			return err
		}
		sig, err := signer.Sign(nil, []byte(signingString), nil)
		if err != nil {
			return err
		}
		if !hmac.Equal([]byte(EncodeSegment(sig)), []byte(signature)) {
			return errors.Errorf("invalid signature")
		}
		return nil
	}

	sig, err := DecodeSegment(signature)
	if err != nil {
		return errors.Errorf("invalid signature")
	}

	h := hashForAlgo[algo]
	if h == 0 {
		return errors.Errorf("unsupported algorithm: %s", algo)
	}

	hasher := h.New()
	hasher.Write([]byte(signingString))

	switch algo {
	case AlgES256, AlgES384, AlgES512:
		curve := curveForAlgo[algo]
		curveBits := curve.Params().BitSize
		keySize := curveBits / 8
		if curveBits%8 > 0 {
			keySize++
		}
		if len(sig) != 2*keySize {
			return errors.Errorf("invalid ECDSA signature length: %s", algo)
		}
		r := big.NewInt(0).SetBytes(sig[:keySize])
		s := big.NewInt(0).SetBytes(sig[keySize:])
		if ecdsaKey, ok := key.(*ecdsa.PublicKey); ok {
			if !ecdsa.Verify(ecdsaKey, hasher.Sum(nil), r, s) {
				return errors.Errorf("invalid signature")
			}
			return nil
		}
		return errors.Errorf("invalid key type for ECDSA signature: %T", key)
	case AlgRS256, AlgRS384, AlgRS512:
		if rsaKey, ok := key.(*rsa.PublicKey); ok {
			err = rsa.VerifyPKCS1v15(rsaKey, h, hasher.Sum(nil), sig)
			if err != nil {
				return errors.Errorf("invalid signature")
			}
			return nil
		}
		return errors.Errorf("invalid key type for RSA signature: %T", key)
	}
	return errors.Errorf("unsupported algorithm: %s", algo)
}
