package service

import (
	"strings"
	"testing"

	"github.com/cradoe/payvista/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	ref := NewReference(models.TransactionTypeAirtimePurchase, "user-1", "")
	assert.True(t, strings.HasPrefix(ref, "PV-AIR-"))
	assert.Len(t, ref, len("PV-AIR-")+24)

	assert.NotEqual(t, ref, NewReference(models.TransactionTypeAirtimePurchase, "user-1", ""))

	keyed := NewReference(models.TransactionTypeDataPurchase, "user-1", "retry-123")
	assert.Equal(t, keyed, NewReference(models.TransactionTypeDataPurchase, "user-1", "retry-123"))
	assert.NotEqual(t, keyed, NewReference(models.TransactionTypeDataPurchase, "user-2", "retry-123"))
	assert.NotEqual(t, keyed, NewReference(models.TransactionTypeCableSubscription, "user-1", "retry-123"))
	assert.True(t, strings.HasPrefix(NewReference(models.TransactionTypeWalletFunding, "u", ""), "PV-FUND-"))
}
