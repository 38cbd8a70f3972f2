// Package models holds the demo application's database records.
package models

import "gorm.io/gorm"

// User is the demo account record.
type User struct {
	gorm.Model

	Name  string `json:"name"`
	Email string `json:"email" gorm:"uniqueIndex"`
}
