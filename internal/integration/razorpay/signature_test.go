package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	c := &Client{keySecret: "test_key_secret"}

	orderID := "order_MNq9Yq1p7x2zAB"
	paymentID := "pay_MNqAbC3d4e5fGH"
	valid := sign([]byte(orderID+"|"+paymentID), "test_key_secret")

	assert.True(t, c.VerifyPaymentSignature(orderID, paymentID, valid))

	// any altered input must fail
	assert.False(t, c.VerifyPaymentSignature(orderID, "pay_other", valid))
	assert.False(t, c.VerifyPaymentSignature("order_other", paymentID, valid))
	assert.False(t, c.VerifyPaymentSignature(orderID, paymentID, sign([]byte(orderID+"|"+paymentID), "wrong_secret")))
}

func TestVerifyPaymentSignatureMalformed(t *testing.T) {
	c := &Client{keySecret: "test_key_secret"}

	assert.False(t, c.VerifyPaymentSignature("order_x", "pay_y", ""))
	assert.False(t, c.VerifyPaymentSignature("order_x", "pay_y", "not-hex!!"))

	// missing secret always rejects, even with a structurally valid signature
	empty := &Client{}
	assert.False(t, empty.VerifyPaymentSignature("order_x", "pay_y", sign([]byte("order_x|pay_y"), "")))
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := &Client{webhookSecret: "whsec_test"}

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	valid := sign(body, "whsec_test")

	assert.True(t, c.VerifyWebhookSignature(body, valid))

	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = 'x'
	assert.False(t, c.VerifyWebhookSignature(tampered, valid))
	assert.False(t, c.VerifyWebhookSignature(body, sign(body, "whsec_other")))
}
