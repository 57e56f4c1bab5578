package entities

import "time"

// Cell is one grid square of a field as reported by the actuator.
// Sowed holds the seed type planted there; nil means not sowed yet.
type Cell struct {
	FieldID     uint     `gorm:"primaryKey;autoIncrement:false" json:"field_id"`
	Row         int      `gorm:"column:c_row;primaryKey;autoIncrement:false" json:"row"`
	Col         int      `gorm:"column:c_col;primaryKey;autoIncrement:false" json:"col"`
	N           *float64 `json:"n"`
	P           *float64 `json:"p"`
	K           *float64 `json:"k"`
	Moisture    *float64 `json:"moisture"`
	PH          *float64 `gorm:"column:ph" json:"ph"`
	Temperature *float64 `json:"temperature"`
	Sowed       *int     `json:"sowed"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NPK is the nutrient triple carried by the "npk" telemetry fragment.
type NPK struct {
	N *float64 `json:"n"`
	P *float64 `json:"p"`
	K *float64 `json:"k"`
}
