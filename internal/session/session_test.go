package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fixedClock returns a clock pinned to a whole second so expiry
// comparisons are exact.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var epoch = time.UnixMilli(1700000000000)

func TestNewService(t *testing.T) {
	t.Run("empty secret fails closed", func(t *testing.T) {
		svc, err := NewService(nil)
		require.Error(t, err)
		require.Nil(t, svc)
	})

	t.Run("valid secret", func(t *testing.T) {
		svc, err := NewService(testSecret)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestCreate(t *testing.T) {
	svc, err := NewService(testSecret)
	require.NoError(t, err)
	svc.WithClock(fixedClock(epoch))

	sess, token, err := svc.Create()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, epoch, sess.IssuedAt)
	require.Equal(t, epoch.Add(Duration), sess.ExpiresAt)

	t.Run("round trip", func(t *testing.T) {
		require.True(t, svc.Validate(token))

		got := svc.Get(token)
		require.NotNil(t, got)
		require.Equal(t, sess.IssuedAt.UnixMilli(), got.IssuedAt.UnixMilli())
		require.Equal(t, sess.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())
	})
}

func TestValidateExpiryBoundary(t *testing.T) {
	svc, err := NewService(testSecret)
	require.NoError(t, err)

	_, token, err := svc.WithClock(fixedClock(epoch)).Create()
	require.NoError(t, err)

	expiry := epoch.Add(Duration)

	t.Run("just before expiry", func(t *testing.T) {
		svc.WithClock(fixedClock(expiry.Add(-time.Millisecond)))
		require.True(t, svc.Validate(token))
	})

	t.Run("just after expiry", func(t *testing.T) {
		svc.WithClock(fixedClock(expiry.Add(time.Millisecond)))
		require.False(t, svc.Validate(token))
		require.Nil(t, svc.Get(token))
	})
}

func TestValidateTamperDetection(t *testing.T) {
	svc, err := NewService(testSecret)
	require.NoError(t, err)
	svc.WithClock(fixedClock(epoch))

	_, token, err := svc.Create()
	require.NoError(t, err)

	// The trailing character of each segment carries base64 padding
	// bits that a non-strict decoder ignores, so flips there are not
	// guaranteed to change the decoded bytes. Every other position
	// must invalidate the token.
	for i := 0; i < len(token); i++ {
		if i == len(token)-1 || token[i+1] == '.' {
			continue
		}
		flipped := []byte(token)
		flipped[i] ^= 0x01
		require.False(t, svc.Validate(string(flipped)), "byte %d flip should invalidate token", i)
	}

	t.Run("truncated signature", func(t *testing.T) {
		require.False(t, svc.Validate(token[:len(token)-2]))
	})
}

func TestValidateSecretRotation(t *testing.T) {
	svcA, err := NewService(testSecret)
	require.NoError(t, err)
	svcA.WithClock(fixedClock(epoch))

	svcB, err := NewService([]byte("another-secret-another-secret-ok"))
	require.NoError(t, err)
	svcB.WithClock(fixedClock(epoch))

	_, token, err := svcA.Create()
	require.NoError(t, err)

	require.True(t, svcA.Validate(token))
	require.False(t, svcB.Validate(token))
	require.Nil(t, svcB.Get(token))
}

func TestValidateMalformed(t *testing.T) {
	svc, err := NewService(testSecret)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		require.False(t, svc.Validate(token))
		require.Nil(t, svc.Get(token))
	}
}
