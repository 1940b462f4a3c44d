package cli

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sigil-dev/sigil/jwt"
)

// TokenCmd provides the token commands
type TokenCmd struct {
	Sign   SignTokenCmd   `cmd:"" help:"Sign a token"`
	Verify VerifyTokenCmd `cmd:"" help:"Verify a token and print its claims"`
	Decode DecodeTokenCmd `cmd:"" help:"Decode a token without verifying the signature"`
}

// signingKey resolves the key material shared by the token commands.
func signingKey(ctx *Cli, secret, keyFile, passphrase string) (*jwt.SigningKey, error) {
	switch {
	case secret != "":
		return jwt.NewSymmetricKey(secret)
	case keyFile != "":
		pemBytes, err := ctx.ReadFile(keyFile)
		if err != nil {
			return nil, errors.WithMessage(err, "unable to load key file")
		}
		return jwt.NewSigningKeyFromPEM(pemBytes, []byte(passphrase))
	default:
		return nil, nil
	}
}

// SignTokenCmd specifies flags for the sign command
type SignTokenCmd struct {
	Claims string `kong:"arg" required:"" help:"claims JSON, or file name, or '-' for stdin"`

	Secret      string        `help:"symmetric signing secret"`
	Key         string        `help:"PEM encoded private key file"`
	Passphrase  string        `help:"passphrase for the private key"`
	Alg         string        `help:"signing algorithm"`
	Exp         time.Duration `help:"expiration offset, for example 5m or 8h"`
	Nbf         time.Duration `help:"not-before offset"`
	Aud         []string      `help:"audience claim"`
	Sub         string        `help:"subject claim"`
	Iss         string        `help:"issuer claim"`
	ID          string        `name:"jti" help:"token identifier claim"`
	Kid         string        `help:"key identifier header"`
	NoTimestamp bool          `help:"do not stamp the iat claim"`
}

// Run the command
func (a *SignTokenCmd) Run(ctx *Cli) error {
	raw := []byte(a.Claims)
	if !strings.HasPrefix(a.Claims, "{") {
		var err error
		raw, err = ctx.ReadFile(a.Claims)
		if err != nil {
			return errors.WithMessage(err, "unable to load claims")
		}
	}

	claims := jwt.Claims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return errors.WithMessage(err, "unable to parse claims")
	}

	key, err := signingKey(ctx, a.Secret, a.Key, a.Passphrase)
	if err != nil {
		return err
	}

	opt := &jwt.SignOptions{
		Algorithm:   a.Alg,
		KeyID:       a.Kid,
		Audience:    a.Aud,
		Subject:     a.Sub,
		Issuer:      a.Iss,
		ID:          a.ID,
		NoTimestamp: a.NoTimestamp,
	}
	if a.Exp != 0 {
		opt.ExpiresIn = jwt.Dur(a.Exp)
	}
	if a.Nbf != 0 {
		opt.NotBefore = jwt.Dur(a.Nbf)
	}

	token, err := jwt.Sign(claims, key, opt)
	if err != nil {
		return err
	}

	ctx.WriteJSON(map[string]string{"token": token})
	return nil
}

// VerifyTokenCmd specifies flags for the verify command
type VerifyTokenCmd struct {
	Token string `kong:"arg" required:"" help:"token, or file name, or '-' for stdin"`

	Secret           string        `help:"symmetric secret"`
	Key              string        `help:"PEM encoded public key or certificate file"`
	Jwks             string        `help:"JWKS endpoint URL"`
	Alg              []string      `help:"acceptable algorithms"`
	Aud              string        `help:"expected audience"`
	Iss              string        `help:"expected issuer"`
	Sub              string        `help:"expected subject"`
	Leeway           time.Duration `help:"clock tolerance"`
	IgnoreExpiration bool          `help:"bypass the exp check"`
	IgnoreNotBefore  bool          `help:"bypass the nbf check"`
}

// Run the command
func (a *VerifyTokenCmd) Run(ctx *Cli) error {
	token, err := tokenArg(ctx, a.Token)
	if err != nil {
		return err
	}

	var key *jwt.VerificationKey
	switch {
	case a.Secret != "":
		key, err = jwt.NewVerificationKey(a.Secret)
		if err != nil {
			return err
		}
	case a.Key != "":
		pemBytes, err := ctx.ReadFile(a.Key)
		if err != nil {
			return errors.WithMessage(err, "unable to load key file")
		}
		key, err = jwt.NewVerificationKeyFromPEM(pemBytes)
		if err != nil {
			return err
		}
	case a.Jwks != "":
		key = jwt.NewVerificationKeyFromKeySet(jwt.NewRemoteKeySet(a.Jwks))
	default:
		return errors.New("one of --secret, --key, or --jwks is required")
	}

	claims, err := jwt.Verify(token, key, &jwt.VerifyConfig{
		Algorithms:       a.Alg,
		ExpectedAudience: a.Aud,
		ExpectedIssuer:   a.Iss,
		ExpectedSubject:  a.Sub,
		Leeway:           a.Leeway,
		IgnoreExpiration: a.IgnoreExpiration,
		IgnoreNotBefore:  a.IgnoreNotBefore,
	})
	if err != nil {
		return err
	}

	ctx.WriteJSON(claims)
	return nil
}

// DecodeTokenCmd specifies flags for the decode command
type DecodeTokenCmd struct {
	Token    string `kong:"arg" required:"" help:"token, or file name, or '-' for stdin"`
	Complete bool   `help:"include the header and signature"`
}

// Run the command
func (a *DecodeTokenCmd) Run(ctx *Cli) error {
	token, err := tokenArg(ctx, a.Token)
	if err != nil {
		return err
	}

	claims := jwt.Decode(token, &jwt.DecodeOptions{Complete: a.Complete})
	ctx.WriteJSON(claims)
	return nil
}

// tokenArg reads the token from the argument, a file, or stdin.
func tokenArg(ctx *Cli, arg string) (string, error) {
	if strings.Count(arg, ".") == 2 {
		return arg, nil
	}
	raw, err := ctx.ReadFile(arg)
	if err != nil {
		return "", errors.WithMessage(err, "unable to load token")
	}
	return strings.TrimSpace(string(raw)), nil
}
