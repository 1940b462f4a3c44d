package jwt_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sigil-dev/sigil/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SignAsync(t *testing.T) {
	key := symKey(t, "async seed")
	ctx := context.Background()

	res := jwt.SignAsync(jwt.Claims{"fp": "async"}, key, nil)
	token, err := res.Wait(ctx)
	require.NoError(t, err)

	claims, err := jwt.VerifyAsync(token, key.VerificationKey(), nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "async", claims.String("fp"))

	// the result is stable across repeated waits
	token2, err := res.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, token2)
}

func Test_SignAsync_Failure(t *testing.T) {
	res := jwt.SignAsync(jwt.Claims{}, nil, nil)
	_, err := res.Wait(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "unable to sign token: key material not provided")
}

func Test_Callbacks(t *testing.T) {
	key := symKey(t, "callback seed")

	var wg sync.WaitGroup
	var token string
	var signErr error

	wg.Add(1)
	jwt.SignWithCallback(jwt.Claims{"cb": true}, key, nil, func(t string, err error) {
		token, signErr = t, err
		wg.Done()
	})
	wg.Wait()
	require.NoError(t, signErr)
	require.NotEmpty(t, token)

	var claims jwt.Claims
	var verifyErr error
	wg.Add(1)
	jwt.VerifyWithCallback(token, key.VerificationKey(), nil, func(c jwt.Claims, err error) {
		claims, verifyErr = c, err
		wg.Done()
	})
	wg.Wait()
	require.NoError(t, verifyErr)
	assert.True(t, claims.Bool("cb"))

	// callback and sync forms agree
	syncClaims, err := jwt.Verify(token, key.VerificationKey(), nil)
	require.NoError(t, err)
	assert.Equal(t, syncClaims, claims)
}

func Test_Callbacks_Failure(t *testing.T) {
	key := symKey(t, "callback seed")

	done := make(chan error, 1)
	jwt.VerifyWithCallback("garbage", key.VerificationKey(), nil, func(_ jwt.Claims, err error) {
		done <- err
	})

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not invoked")
	}
}
