package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cradoe/payvista/internal/models"
	"github.com/google/uuid"
)

const referencePrefix = "PV"

var referenceCodes = map[models.TransactionType]string{
	models.TransactionTypeWalletFunding:      "FUND",
	models.TransactionTypeAirtimePurchase:    "AIR",
	models.TransactionTypeDataPurchase:       "DAT",
	models.TransactionTypeElectricityPayment: "ELE",
	models.TransactionTypeCableSubscription:  "CAB",
}

// NewReference builds a transaction reference such as PV-AIR-3F2A...
// When idempotencyKey is set the reference is derived from it, so a retried
// request maps onto the same reference and hits the store's uniqueness check.
func NewReference(txType models.TransactionType, userID, idempotencyKey string) string {
	code := referenceCodes[txType]

	var suffix string
	if idempotencyKey != "" {
		sum := sha256.Sum256([]byte(userID + ":" + string(txType) + ":" + idempotencyKey))
		suffix = hex.EncodeToString(sum[:])[:24]
	} else {
		suffix = strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}

	return referencePrefix + "-" + code + "-" + strings.ToUpper(suffix)
}
