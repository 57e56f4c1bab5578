package entities

import "time"

type Field struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Length          float64    `gorm:"column:f_length;not null" json:"length"`
	Width           float64    `gorm:"column:f_width;not null" json:"width"`
	SquareSize      float64    `gorm:"not null" json:"square_size"`
	StartSowingDate time.Time  `gorm:"type:date;not null;index" json:"start_sowing_date"`
	EndSowingDate   *time.Time `gorm:"type:date" json:"end_sowing_date"`
	SowingStatus    *string    `json:"sowing_status"`

	Cells []Cell `gorm:"foreignKey:FieldID" json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
