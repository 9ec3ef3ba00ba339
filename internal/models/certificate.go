package models

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is a celebratory artifact generated for an active relationship.
// Rendering (PDF etc.) happens elsewhere; this is only the record of issue.
type Certificate struct {
	gorm.Model
	RelationshipID uint   `gorm:"not null;index"`
	Title          string `gorm:"size:255;not null"`
	Serial         string `gorm:"size:64;unique;not null"`
	IssuedAt       time.Time

	Relationship Relationship `gorm:"foreignKey:RelationshipID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
