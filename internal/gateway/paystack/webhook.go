package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureHeader carries hex(HMAC-SHA512(secret, rawBody)).
const SignatureHeader = "x-paystack-signature"

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Sign computes the signature Paystack would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares in constant time. An empty secret never validates.
func ValidSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)

	return hmac.Equal(mac.Sum(nil), want)
}

type Event struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func ParseEvent(body []byte) (Event, error) {
	var ev Event

	err := json.Unmarshal(body, &ev)
	if err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}

	if ev.Event == "" || ev.Data.Reference == "" {
		return Event{}, fmt.Errorf("event %q without reference", ev.Event)
	}

	return ev, nil
}
