package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Beneficiary struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	ProviderID  string         `db:"provider_id"`
	Name        string         `db:"name"`
	Identifier  string         `db:"identifier"`
	ServiceType ServiceType    `db:"service_type"`
	Metadata    types.JSONText `db:"metadata"`
	IsFavorite  bool           `db:"is_favorite"`
	CreatedAt   time.Time      `db:"created_at"`
}
