package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "transactions_reference_key"}

	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.Equal(t, "transactions_reference_key", uniqueConstraint(dup))

	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.Empty(t, uniqueConstraint(errors.New("boom")))
}

func TestDuplicatePhoneNumberIsDuplicateEntry(t *testing.T) {
	phone := &pq.Error{Code: "23505", Constraint: usersPhoneNumberKey}

	assert.Equal(t, usersPhoneNumberKey, uniqueConstraint(fmt.Errorf("insert user: %w", phone)))
	assert.ErrorIs(t, ErrDuplicatePhoneNumber, ErrDuplicateEntry)
}
