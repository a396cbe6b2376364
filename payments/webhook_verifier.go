package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Verifier authenticates inbound webhook payloads before they are allowed
// anywhere near the payment ledger. It always verifies against the raw
// request bytes: re-serialized JSON changes whitespace and key order and
// would break the signature.
type Verifier struct {
	secrets map[string]string
}

func NewVerifier(secrets map[string]string) *Verifier {
	return &Verifier{secrets: secrets}
}

// Verify fails closed: missing secret, empty header or any mismatch
// returns false and the caller must reject the event without touching the
// ledger.
func (v *Verifier) Verify(gatewayName string, rawBody []byte, signatureHeader string) bool {
	secret, ok := v.secrets[gatewayName]
	if !ok || secret == "" || signatureHeader == "" {
		return false
	}

	switch gatewayName {
	case GatewayPaystack:
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(rawBody)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(signatureHeader))
	case GatewayFlutterwave:
		// Flutterwave sends the configured secret hash itself in verif-hash.
		return subtle.ConstantTimeCompare([]byte(secret), []byte(signatureHeader)) == 1
	}
	return false
}

// SignatureHeader names the request header carrying each gateway's
// signature.
func SignatureHeader(gatewayName string) string {
	switch gatewayName {
	case GatewayPaystack:
		return "x-paystack-signature"
	case GatewayFlutterwave:
		return "verif-hash"
	}
	return ""
}
