package services

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	svc := &MidtransService{serverKey: "SB-Mid-server-test"}

	orderID := "pool-1-user-2"
	statusCode := "200"
	grossAmount := "900.00"

	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + "SB-Mid-server-test"))
	valid := hex.EncodeToString(sum[:])

	if !svc.VerifySignature(orderID, statusCode, grossAmount, valid) {
		t.Error("VerifySignature rejected a correctly signed notification")
	}
	if svc.VerifySignature(orderID, statusCode, grossAmount, "forged") {
		t.Error("VerifySignature accepted a forged signature")
	}
	if svc.VerifySignature(orderID, statusCode, "901.00", valid) {
		t.Error("VerifySignature accepted a tampered amount")
	}
}
