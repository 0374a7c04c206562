package service

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signedNotification(serverKey string) Notification {
	n := Notification{
		OrderID:           "6fa459ea-ee8a-3ca4-894e-db77e160355e",
		StatusCode:        "200",
		GrossAmount:       "12000.00",
		TransactionStatus: "settlement",
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	n.SignatureKey = hex.EncodeToString(sum[:])
	return n
}

func TestVerifySignature(t *testing.T) {
	g := &Gateway{serverKey: "sk-test"}

	n := signedNotification("sk-test")
	assert.True(t, g.VerifySignature(n))

	n.GrossAmount = "1.00"
	assert.False(t, g.VerifySignature(n), "tampered amount must break the signature")

	forged := signedNotification("sk-other")
	assert.False(t, g.VerifySignature(forged))
}

func TestNotificationIsSettled(t *testing.T) {
	cases := []struct {
		status string
		fraud  string
		want   bool
	}{
		{"settlement", "", true},
		{"capture", "accept", true},
		{"capture", "challenge", false},
		{"pending", "", false},
		{"deny", "", false},
		{"expire", "", false},
		{"cancel", "", false},
	}
	for _, tc := range cases {
		n := Notification{TransactionStatus: tc.status, FraudStatus: tc.fraud}
		assert.Equal(t, tc.want, n.IsSettled(), tc.status)
	}
}
