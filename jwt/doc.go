// Package jwt provides JSON Web Token (JWT) signing, verification, and
// decoding.
//
// The package exposes three calling conventions over one shared
// implementation:
//   - synchronous: Sign, Verify, Decode
//   - callback: SignWithCallback, VerifyWithCallback
//   - deferred: SignAsync, VerifyAsync returning waitable results
//
// Supported algorithms are HS256/HS384/HS512 (HMAC), RS256/RS384/RS512
// (RSA PKCS#1 v1.5), ES256/ES384/ES512 (ECDSA), and the unsecured "none"
// algorithm, which must be selected explicitly on both the signing and
// the verifying side.
//
// Key material is supplied via SigningKey and VerificationKey, constructed
// from a shared secret, from PEM encoded private or public keys with an
// optional passphrase, or from a JWKS key set.
//
// A configuration driven Provider is also available for issuer style
// workloads with a rotating symmetric key ring.
package jwt
