package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrDuplicateReference = errors.New("transaction reference already exists")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrRecordNotFound     = errors.New("record not found")

	// ErrDuplicatePhoneNumber is an ErrDuplicateEntry on users.phone_number.
	ErrDuplicatePhoneNumber = fmt.Errorf("phone number already registered: %w", ErrDuplicateEntry)
)

const usersPhoneNumberKey = "users_phone_number_key"

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// uniqueConstraint returns the name of the violated constraint, if any.
func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
