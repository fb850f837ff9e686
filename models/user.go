package models

import (
	"time"
)

const UserTable = "custody_users"
const DepartmentTable = "custody_departments"

// User — Username doubles as the contact address notifications go to.
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Username     string `gorm:"uniqueIndex;size:255;not null" json:"username"`
	DisplayName  string `gorm:"size:255;not null" json:"displayName"`
	DepartmentID string `gorm:"type:uuid;index" json:"departmentId"`
	IsHead       bool   `gorm:"not null;default:false" json:"isHead"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Department owns a head — the approving authority for its members'
// custody requests.
type Department struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	HeadID    string    `gorm:"type:uuid;index" json:"headId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string       { return UserTable }
func (Department) TableName() string { return DepartmentTable }
