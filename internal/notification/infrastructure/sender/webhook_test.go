package sender

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSenderSignsPayload(t *testing.T) {
	secret := "super-secret-signing-key"
	payload := []byte(`{"event_type":"GiftCardRedeemed","card_id":"abc"}`)

	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender()
	require.NoError(t, sender.Send(context.Background(), server.URL, secret, payload))

	assert.Equal(t, payload, gotBody)

	// 收件方用同一密钥重算签名即可校验
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSignature)
}

func TestWebhookSenderRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewWebhookSender()
	err := sender.Send(context.Background(), server.URL, "secret", []byte(`{}`))
	assert.Error(t, err)
}

func TestSignDiffersPerSecret(t *testing.T) {
	payload := []byte(`{"a":1}`)
	assert.NotEqual(t, Sign("secret-one", payload), Sign("secret-two", payload))
	assert.Equal(t, Sign("secret-one", payload), Sign("secret-one", payload))
}
