package payments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePaystackEvent(t *testing.T) {
	t.Run("charge success", func(t *testing.T) {
		body := []byte(`{"event":"charge.success","data":{"id":302961,"reference":"PAY-ABC123","status":"success","amount":500000,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayPaystack, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.Equal(t, "charge.success:302961", evt.EventKey)
		require.Equal(t, "PAY-ABC123", evt.Reference)
		require.True(t, evt.Succeeded())
		require.Equal(t, "302961", evt.GatewayTxnID)
		require.Equal(t, "5000.00", evt.Amount.Amount.StringFixed(2))
		require.Equal(t, "NGN", evt.Amount.Currency)
	})

	t.Run("charge failed", func(t *testing.T) {
		body := []byte(`{"event":"charge.failed","data":{"id":302962,"reference":"PAY-DEF456","status":"failed","amount":500000,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayPaystack, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.False(t, evt.Succeeded())
	})

	t.Run("success event with non-success data status treated as failed", func(t *testing.T) {
		body := []byte(`{"event":"charge.success","data":{"id":302963,"reference":"PAY-GHI789","status":"reversed","amount":500000,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayPaystack, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.False(t, evt.Succeeded())
	})

	t.Run("uninteresting event type skipped", func(t *testing.T) {
		body := []byte(`{"event":"transfer.success","data":{"id":1,"reference":"TRF-1","status":"success","amount":100,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayPaystack, body)
		require.NoError(t, err)
		require.Nil(t, evt)
	})

	t.Run("missing reference rejected", func(t *testing.T) {
		body := []byte(`{"event":"charge.success","data":{"id":1,"status":"success","amount":100,"currency":"NGN"}}`)

		_, err := ParseWebhookEvent(GatewayPaystack, body)
		require.Error(t, err)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		_, err := ParseWebhookEvent(GatewayPaystack, []byte(`{"event":`))
		require.Error(t, err)
	})
}

func TestParseFlutterwaveEvent(t *testing.T) {
	t.Run("charge completed successful", func(t *testing.T) {
		body := []byte(`{"event":"charge.completed","data":{"id":285959875,"tx_ref":"PAY-XYZ999","status":"successful","amount":5000,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayFlutterwave, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.Equal(t, "charge.completed:285959875", evt.EventKey)
		require.Equal(t, "PAY-XYZ999", evt.Reference)
		require.True(t, evt.Succeeded())
		require.Equal(t, "5000.00", evt.Amount.Amount.StringFixed(2))
	})

	t.Run("fractional major-unit amount parsed exactly", func(t *testing.T) {
		body := []byte(`{"event":"charge.completed","data":{"id":285959877,"tx_ref":"PAY-FRAC1","status":"successful","amount":70462.91,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayFlutterwave, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.Equal(t, "70462.91", evt.Amount.Amount.StringFixed(2))
		require.Equal(t, int64(7046291), evt.Amount.MinorUnits())
	})

	t.Run("charge completed failed", func(t *testing.T) {
		body := []byte(`{"event":"charge.completed","data":{"id":285959876,"tx_ref":"PAY-XYZ998","status":"failed","amount":5000,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayFlutterwave, body)
		require.NoError(t, err)
		require.NotNil(t, evt)
		require.False(t, evt.Succeeded())
	})

	t.Run("other event type skipped", func(t *testing.T) {
		body := []byte(`{"event":"transfer.completed","data":{"id":1,"tx_ref":"TRF-1","status":"successful","amount":100,"currency":"NGN"}}`)

		evt, err := ParseWebhookEvent(GatewayFlutterwave, body)
		require.NoError(t, err)
		require.Nil(t, evt)
	})
}

func TestParseWebhookEventUnknownGateway(t *testing.T) {
	_, err := ParseWebhookEvent("stripe", []byte(`{}`))
	require.Error(t, err)
}
