package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	t.Parallel()

	body := []byte(`{"destination":"U1","events":[]}`)
	secret := "channel-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, Sign(body, secret))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	bodies := [][]byte{
		[]byte(`{"events":[]}`),
		[]byte(`{"events":[{"type":"message","message":{"type":"text","text":"/news"},"replyToken":"R1"}]}`),
		[]byte("今日新聞"),
		{},
	}
	secrets := []string{"s", "channel-secret", "a much longer channel secret value 0123456789"}

	t.Run("signed body verifies", func(t *testing.T) {
		for _, body := range bodies {
			for _, secret := range secrets {
				assert.True(t, Verify(body, Sign(body, secret), secret), "body=%q secret=%q", body, secret)
			}
		}
	})

	t.Run("any single bit flip fails", func(t *testing.T) {
		for _, body := range bodies {
			for _, secret := range secrets {
				sig := Sign(body, secret)
				for i := range body {
					for bit := 0; bit < 8; bit++ {
						mutated := append([]byte(nil), body...)
						mutated[i] ^= 1 << bit
						require.False(t, Verify(mutated, sig, secret), "byte %d bit %d of %q", i, bit, body)
					}
				}
			}
		}
	})

	t.Run("wrong secret fails", func(t *testing.T) {
		body := bodies[1]
		assert.False(t, Verify(body, Sign(body, "secret-a"), "secret-b"))
	})

	t.Run("empty header fails", func(t *testing.T) {
		assert.False(t, Verify(bodies[0], "", "secret"))
	})

	t.Run("empty secret fails", func(t *testing.T) {
		assert.False(t, Verify(bodies[0], Sign(bodies[0], ""), ""))
	})

	t.Run("garbage header fails", func(t *testing.T) {
		assert.False(t, Verify(bodies[0], "not-base64!!", "secret"))
	})
}
