package jwt

import (
	"context"
	"crypto"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	jose "github.com/go-jose/go-jose/v3"
)

// KeySet is an interface for resolving verification keys by kid.
type KeySet interface {
	GetKey(ctx context.Context, kid string) (any, error)
}

// publicKeyOf unwraps jose key containers to the underlying public key.
func publicKeyOf(key any) crypto.PublicKey {
	switch k := key.(type) {
	case jose.JSONWebKey:
		return k.Key
	case *jose.JSONWebKey:
		return k.Key
	default:
		return key
	}
}

// StaticKeySet validates tokens against a static set of public keys.
type StaticKeySet struct {
	Keys []jose.JSONWebKey
}

// GetKey returns the public key for the given kid. An empty kid matches
// the first key.
func (s *StaticKeySet) GetKey(_ context.Context, kid string) (any, error) {
	for _, key := range s.Keys {
		if kid == "" || key.KeyID == kid {
			return key.Key, nil
		}
	}
	return nil, errors.Errorf("key not found: %s", kid)
}

// RemoteKeySet validates tokens against a JWKS endpoint. Keys are
// cached; a kid miss triggers a refresh, as recommended for signing key
// rotation. Refreshes are single-flight.
type RemoteKeySet struct {
	jwksURL string
	client  *http.Client

	// guard all other fields
	mu sync.RWMutex

	// inflight suppresses parallel execution of updateKeys and allows
	// multiple goroutines to wait for its result.
	inflight *inflight

	cachedKeys []jose.JSONWebKey
}

// NewRemoteKeySet returns a KeySet that fetches a JWKS document from
// the given URL. Reuse one RemoteKeySet instead of creating new ones as
// needed: it is a long lived verifier that caches keys.
func NewRemoteKeySet(jwksURL string) *RemoteKeySet {
	return &RemoteKeySet{
		jwksURL: jwksURL,
		client:  http.DefaultClient,
	}
}

// WithHTTPClient overrides the HTTP client used for JWKS fetches.
func (r *RemoteKeySet) WithHTTPClient(client *http.Client) *RemoteKeySet {
	r.client = client
	return r
}

// inflight is used to wait on some in-flight request from multiple
// goroutines.
type inflight struct {
	doneCh chan struct{}

	keys []jose.JSONWebKey
	err  error
}

func newInflight() *inflight {
	return &inflight{doneCh: make(chan struct{})}
}

func (i *inflight) wait() <-chan struct{} {
	return i.doneCh
}

// done can only be called by a single goroutine. It records the result
// of the inflight request and signals other goroutines that the result
// is safe to inspect.
func (i *inflight) done(keys []jose.JSONWebKey, err error) {
	i.keys = keys
	i.err = err
	close(i.doneCh)
}

func (i *inflight) result() ([]jose.JSONWebKey, error) {
	return i.keys, i.err
}

// GetKey returns the public key for the given kid.
func (r *RemoteKeySet) GetKey(ctx context.Context, kid string) (any, error) {
	for _, key := range r.keysFromCache() {
		if kid == "" || key.KeyID == kid {
			return key.Key, nil
		}
	}

	keys, err := r.keysFromRemote(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to fetch JWKS key")
	}

	for _, key := range keys {
		if kid == "" || key.KeyID == kid {
			return key.Key, nil
		}
	}
	return nil, errors.Errorf("key not found: %s", kid)
}

func (r *RemoteKeySet) keysFromCache() []jose.JSONWebKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cachedKeys
}

// keysFromRemote syncs the key set from the remote endpoint, records
// the values in the cache, and returns the key set.
func (r *RemoteKeySet) keysFromRemote(ctx context.Context) ([]jose.JSONWebKey, error) {
	r.mu.Lock()
	if r.inflight == nil {
		r.inflight = newInflight()

		// This goroutine has exclusive ownership over the current
		// inflight request. It releases the resource by nil'ing the
		// inflight field once the goroutine is done.
		go func() {
			keys, err := r.updateKeys(ctx)
			r.inflight.done(keys, err)

			r.mu.Lock()
			defer r.mu.Unlock()

			if err == nil {
				r.cachedKeys = keys
			}
			r.inflight = nil
		}()
	}
	inflight := r.inflight
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-inflight.wait():
		return inflight.result()
	}
}

func (r *RemoteKeySet) updateKeys(ctx context.Context) ([]jose.JSONWebKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.jwksURL, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create request")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to fetch keys")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("get keys failed: %s %s", resp.Status, body)
	}

	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal(body, &keySet); err != nil {
		return nil, errors.Errorf("failed to decode keys: %v", err)
	}
	return keySet.Keys, nil
}
