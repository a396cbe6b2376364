package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func paystackSign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaystackSignature(t *testing.T) {
	secret := "sk_test_webhook_secret"
	verifier := NewVerifier(map[string]string{GatewayPaystack: secret})
	body := []byte(`{"event":"charge.success","data":{"id":12345,"reference":"PAY-ABC123","status":"success","amount":500000,"currency":"NGN"}}`)

	t.Run("valid signature accepted", func(t *testing.T) {
		require.True(t, verifier.Verify(GatewayPaystack, body, paystackSign(secret, body)))
	})

	t.Run("tampered body rejected", func(t *testing.T) {
		signature := paystackSign(secret, body)
		tampered := []byte(`{"event":"charge.success","data":{"id":12345,"reference":"PAY-ABC123","status":"success","amount":999900,"currency":"NGN"}}`)
		require.False(t, verifier.Verify(GatewayPaystack, tampered, signature))
	})

	t.Run("signature from wrong secret rejected", func(t *testing.T) {
		require.False(t, verifier.Verify(GatewayPaystack, body, paystackSign("sk_test_other_secret", body)))
	})

	t.Run("empty signature header rejected", func(t *testing.T) {
		require.False(t, verifier.Verify(GatewayPaystack, body, ""))
	})
}

func TestVerifyFlutterwaveHash(t *testing.T) {
	verifier := NewVerifier(map[string]string{GatewayFlutterwave: "flw-secret-hash"})
	body := []byte(`{"event":"charge.completed"}`)

	require.True(t, verifier.Verify(GatewayFlutterwave, body, "flw-secret-hash"))
	require.False(t, verifier.Verify(GatewayFlutterwave, body, "wrong-hash"))
	require.False(t, verifier.Verify(GatewayFlutterwave, body, ""))
}

func TestVerifyFailsClosed(t *testing.T) {
	verifier := NewVerifier(map[string]string{GatewayPaystack: ""})
	body := []byte(`{}`)

	t.Run("empty secret rejected", func(t *testing.T) {
		require.False(t, verifier.Verify(GatewayPaystack, body, paystackSign("", body)))
	})

	t.Run("unknown gateway rejected", func(t *testing.T) {
		require.False(t, verifier.Verify("stripe", body, "anything"))
	})
}

func TestSignatureHeader(t *testing.T) {
	require.Equal(t, "x-paystack-signature", SignatureHeader(GatewayPaystack))
	require.Equal(t, "verif-hash", SignatureHeader(GatewayFlutterwave))
	require.Equal(t, "", SignatureHeader("stripe"))
}
