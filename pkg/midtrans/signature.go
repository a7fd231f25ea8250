package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature computes the notification digest Midtrans sends alongside every
// webhook: SHA-512 over order_id + status_code + gross_amount + server key.
// The gross amount must be the exact string from the notification body,
// decimals included.
func Signature(serverKey, orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature reports whether the received signature matches the expected
// digest, using a constant-time comparison.
func VerifySignature(serverKey, orderID, statusCode, grossAmount, received string) bool {
	if received == "" {
		return false
	}
	expected := Signature(serverKey, orderID, statusCode, grossAmount)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
