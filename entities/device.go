package entities

import "time"

type Device struct {
	Name        string `gorm:"primaryKey;size:255" json:"name"`
	IPv6Address string `gorm:"column:ipv6_address;size:100" json:"ipv6_address"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
