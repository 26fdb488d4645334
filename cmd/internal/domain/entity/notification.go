package entity

import "fmt"

type Notification struct {
	Base
	UserID  string           `gorm:"size:36;not null;index"` // References: users(id)
	Type    NotificationType `gorm:"size:16;not null;check:chk_notifications_type,type IN ('Email','SMS','InApp')"`
	Message string           `gorm:"type:text;not null"`

	// Relations
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (n *Notification) Normalize() {}

func (n *Notification) Validate() error {
	if !n.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	return nil
}
