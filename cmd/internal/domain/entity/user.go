package entity

import (
	"errors"
	"fmt"
)

type User struct {
	Base
	Email          string   `gorm:"size:320;not null;uniqueIndex"`
	HashedPassword string   `gorm:"not null"`
	Role           UserRole `gorm:"size:16;not null;check:chk_users_role,role IN ('Professional','Client','Admin')"`
}

func (u *User) Normalize() {}

func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown user role %q", u.Role)
	}
	return nil
}

type Profile struct {
	Base
	FirstName      string  `gorm:"size:100;not null"`
	LastName       string  `gorm:"size:100;not null"`
	ProfessionalID *string `gorm:"size:64;uniqueIndex:idx_profiles_professional_client"`
	ClientID       *string `gorm:"size:64;uniqueIndex:idx_profiles_professional_client"`
	UserID         *string `gorm:"size:36;index"` // References: users(id)

	// Relations
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (p *Profile) Normalize() {
	p.ProfessionalID = emptyToNil(p.ProfessionalID)
	p.ClientID = emptyToNil(p.ClientID)
	p.UserID = emptyToNil(p.UserID)
}

func (p *Profile) Validate() error {
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
