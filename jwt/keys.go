package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	"github.com/cockroachdb/errors"
)

// SigningKey holds the key material used to produce a token: either a
// shared symmetric secret or an asymmetric private key.
type SigningKey struct {
	secret []byte
	signer crypto.Signer
}

// NewSymmetricKey returns a SigningKey from a shared secret.
// The secret may be a string or raw bytes.
func NewSymmetricKey(secret any) (*SigningKey, error) {
	switch s := secret.(type) {
	case string:
		return &SigningKey{secret: []byte(s)}, nil
	case []byte:
		return &SigningKey{secret: s}, nil
	default:
		return nil, errors.Errorf("unsupported secret type: %T", secret)
	}
}

// NewSigningKeyFromSigner returns a SigningKey backed by the provided
// asymmetric signer.
func NewSigningKeyFromSigner(signer crypto.Signer) *SigningKey {
	return &SigningKey{signer: signer}
}

// NewSigningKeyFromPEM parses a PEM encoded private key, optionally
// protected by a passphrase. The key may be PKCS#8, PKCS#1, or an
// elliptic private key.
func NewSigningKeyFromPEM(keyPEM, password []byte) (*SigningKey, error) {
	pvk, err := parsePrivateKeyPEM(keyPEM, password)
	if err != nil {
		return nil, err
	}
	signer, ok := pvk.(crypto.Signer)
	if !ok {
		return nil, errors.Errorf("key does not support signing: %T", pvk)
	}
	return &SigningKey{signer: signer}, nil
}

// VerificationKey returns the matching verification key.
func (k *SigningKey) VerificationKey() *VerificationKey {
	if k.signer != nil {
		return &VerificationKey{public: k.signer.Public()}
	}
	return &VerificationKey{secret: k.secret}
}

// VerificationKey holds the key material used to validate a token:
// a shared symmetric secret, an asymmetric public key, or a key set
// consulted by kid.
type VerificationKey struct {
	secret []byte
	public crypto.PublicKey
	keySet KeySet
}

// NewVerificationKey returns a VerificationKey from a shared secret
// (string or bytes) or a crypto.PublicKey.
func NewVerificationKey(key any) (*VerificationKey, error) {
	switch k := key.(type) {
	case string:
		return &VerificationKey{secret: []byte(k)}, nil
	case []byte:
		return &VerificationKey{secret: k}, nil
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return &VerificationKey{public: k}, nil
	default:
		return nil, errors.Errorf("unsupported key type: %T", key)
	}
}

// NewVerificationKeyFromPEM parses a PEM encoded public key or
// certificate.
func NewVerificationKeyFromPEM(pemBytes []byte) (*VerificationKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.Errorf("unable to decode PEM")
	}

	switch block.Type {
	case "CERTIFICATE":
		crt, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to parse certificate")
		}
		return &VerificationKey{public: crt.PublicKey}, nil
	case "PUBLIC KEY", "RSA PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to parse public key")
		}
		return &VerificationKey{public: pub}, nil
	default:
		return nil, errors.Errorf("unsupported PEM block: %q", block.Type)
	}
}

// NewVerificationKeyFromKeySet returns a VerificationKey that resolves
// the public key from the set by the token kid header.
func NewVerificationKeyFromKeySet(ks KeySet) *VerificationKey {
	return &VerificationKey{keySet: ks}
}

// parsePrivateKeyPEM parses a PEM encoded private key and returns the
// typed key. EC PARAMETERS blocks produced by openssl are skipped.
func parsePrivateKeyPEM(keyPEM, password []byte) (crypto.PrivateKey, error) {
	var block *pem.Block
	for {
		block, keyPEM = pem.Decode(keyPEM)
		if block == nil || block.Type != "EC PARAMETERS" {
			break
		}
	}
	if block == nil {
		return nil, errors.Errorf("unable to decode private key")
	}

	keyDER := block.Bytes
	if procType, ok := block.Headers["Proc-Type"]; ok && strings.Contains(procType, "ENCRYPTED") {
		if len(password) == 0 {
			return nil, errors.Errorf("private key is encrypted")
		}
		der, err := x509.DecryptPEMBlock(block, password)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to decrypt private key")
		}
		keyDER = der
	}

	return parsePrivateKeyDER(keyDER)
}

// parsePrivateKeyDER parses a PKCS#1, PKCS#8, or EC DER encoded key.
func parsePrivateKeyDER(keyDER []byte) (crypto.PrivateKey, error) {
	generalKey, err := x509.ParsePKCS8PrivateKey(keyDER)
	if err != nil {
		generalKey, err = x509.ParsePKCS1PrivateKey(keyDER)
		if err != nil {
			generalKey, err = x509.ParseECPrivateKey(keyDER)
			if err != nil {
				return nil, errors.New("failed to parse private key")
			}
		}
	}

	switch typ := generalKey.(type) {
	case *rsa.PrivateKey:
		return typ, nil
	case *ecdsa.PrivateKey:
		return typ, nil
	}
	return nil, errors.Errorf("unsupported private key type")
}
