package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	t.Parallel()

	c := NewRazorpayClient("key", "secret", "whsecret", "http://unused", time.Second)

	orderID := "order_abc123"
	paymentID := "pay_xyz789"
	valid := sign("secret", orderID+"|"+paymentID)

	assert.True(t, c.VerifyPaymentSignature(orderID, paymentID, valid))
	assert.False(t, c.VerifyPaymentSignature(orderID, paymentID, "tampered"))
	assert.False(t, c.VerifyPaymentSignature(orderID, "pay_other", valid))
	assert.False(t, c.VerifyPaymentSignature(orderID, paymentID, ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	c := NewRazorpayClient("key", "secret", "whsecret", "http://unused", time.Second)

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	valid := sign("whsecret", string(body))

	assert.True(t, c.VerifyWebhookSignature(body, valid))
	assert.False(t, c.VerifyWebhookSignature(body, sign("wrong", string(body))))

	// Any byte change to the body invalidates the signature.
	mutated := []byte(`{"event":"payment.captured","payload":{ }}`)
	assert.False(t, c.VerifyWebhookSignature(mutated, valid))
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_test1","amount":49900,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	c := NewRazorpayClient("key", "secret", "whsecret", srv.URL, time.Second)

	order, err := c.CreateOrder(context.Background(), 49900, "INR", "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_test1", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
}

func TestCreateOrderGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRazorpayClient("key", "secret", "whsecret", srv.URL, time.Second)

	_, err := c.CreateOrder(context.Background(), 49900, "INR", "rcpt_1")
	assert.Error(t, err)
}
