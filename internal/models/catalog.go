package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ServiceType string

const (
	ServiceAirtime     ServiceType = "airtime"
	ServiceData        ServiceType = "data"
	ServiceElectricity ServiceType = "electricity"
	ServiceCable       ServiceType = "cable"
)

var ServiceTypes = []ServiceType{ServiceAirtime, ServiceData, ServiceElectricity, ServiceCable}

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceAirtime, ServiceData, ServiceElectricity, ServiceCable:
		return true
	}
	return false
}

type Provider struct {
	ID          string      `db:"id" json:"id"`
	Name        string      `db:"name" json:"name"`
	Code        string      `db:"code" json:"code"`
	ServiceType ServiceType `db:"service_type" json:"service_type"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

type ServicePackage struct {
	ID         string          `db:"id" json:"id"`
	ProviderID string          `db:"provider_id" json:"provider_id"`
	Name       string          `db:"name" json:"name"`
	Code       string          `db:"code" json:"code"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Validity   string          `db:"validity" json:"validity"`
	IsActive   bool            `db:"is_active" json:"is_active"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
