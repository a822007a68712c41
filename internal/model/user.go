package model

import "time"

type UserRole string

const (
	Member UserRole = "member"
	Staff  UserRole = "staff"
	Admin  UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	FullName  string    `gorm:"size:100;not null" json:"fullName"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:varchar(20);default:'member'" json:"role"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
