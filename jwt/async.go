package jwt

import "context"

// SignCallback receives the outcome of an asynchronous sign operation.
type SignCallback func(token string, err error)

// VerifyCallback receives the outcome of an asynchronous verify
// operation.
type VerifyCallback func(claims Claims, err error)

// SignWithCallback signs the payload on a separate goroutine and
// delivers the outcome to cb exactly once. The callback and the
// synchronous Sign share one implementation.
func SignWithCallback(payload any, key *SigningKey, opt *SignOptions, cb SignCallback) {
	go func() {
		cb(Sign(payload, key, opt))
	}()
}

// VerifyWithCallback verifies the token on a separate goroutine and
// delivers the outcome to cb exactly once.
func VerifyWithCallback(token string, key *VerificationKey, cfg *VerifyConfig, cb VerifyCallback) {
	go func() {
		cb(Verify(token, key, cfg))
	}()
}

// SignResult is the deferred outcome of SignAsync. It completes exactly
// once; multiple goroutines may wait on it.
type SignResult struct {
	done  chan struct{}
	token string
	err   error
}

// Done returns a channel closed when the result is available.
func (r *SignResult) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the result is available or the context is done.
func (r *SignResult) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-r.done:
		return r.token, r.err
	}
}

// SignAsync signs the payload on a separate goroutine and returns a
// waitable result.
func SignAsync(payload any, key *SigningKey, opt *SignOptions) *SignResult {
	r := &SignResult{done: make(chan struct{})}
	go func() {
		r.token, r.err = Sign(payload, key, opt)
		close(r.done)
	}()
	return r
}

// VerifyResult is the deferred outcome of VerifyAsync.
type VerifyResult struct {
	done   chan struct{}
	claims Claims
	err    error
}

// Done returns a channel closed when the result is available.
func (r *VerifyResult) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the result is available or the context is done.
func (r *VerifyResult) Wait(ctx context.Context) (Claims, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.claims, r.err
	}
}

// VerifyAsync verifies the token on a separate goroutine and returns a
// waitable result.
func VerifyAsync(token string, key *VerificationKey, cfg *VerifyConfig) *VerifyResult {
	r := &VerifyResult{done: make(chan struct{})}
	go func() {
		r.claims, r.err = Verify(token, key, cfg)
		close(r.done)
	}()
	return r
}
