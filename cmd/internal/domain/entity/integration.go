package entity

import (
	"errors"
	"fmt"

	"gorm.io/datatypes"
)

type ExternalIntegration struct {
	Base
	Name string `gorm:"size:100;not null;index"`
	// APIKey holds the bcrypt hash of the key; the key itself is never stored.
	APIKey  string `gorm:"column:api_key;size:255;not null"`
	KeyHint string `gorm:"size:80;not null;default:''"`
}

func (e *ExternalIntegration) Normalize() {}

func (e *ExternalIntegration) Validate() error {
	if e.Name == "" {
		return errors.New("integration name is required")
	}
	if e.APIKey == "" {
		return errors.New("integration api key is required")
	}
	return nil
}

type Integration struct {
	Base
	ExternalIntegrationID string          `gorm:"size:36;not null;index"` // References: external_integrations(id)
	EventType             IntegrationType `gorm:"size:32;not null;check:chk_integrations_event_type,event_type IN ('ScheduleChange','BookingConfirmation')"`
	Payload               datatypes.JSON  `gorm:"not null"`

	// Relations
	ExternalIntegration *ExternalIntegration `gorm:"foreignKey:ExternalIntegrationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (i *Integration) Normalize() {}

func (i *Integration) Validate() error {
	if !i.EventType.Valid() {
		return fmt.Errorf("unknown integration event type %q", i.EventType)
	}
	_, err := i.DecodePayload()
	return err
}

// SetPayload stores p and sets the event type it belongs to.
func (i *Integration) SetPayload(p IntegrationPayload) error {
	raw, err := encodePayload(p)
	if err != nil {
		return err
	}
	i.EventType = p.IntegrationType()
	i.Payload = raw
	return nil
}

// DecodePayload returns the typed payload selected by EventType.
func (i *Integration) DecodePayload() (IntegrationPayload, error) {
	return DecodeIntegrationPayload(i.EventType, i.Payload)
}

type Analytics struct {
	Base
	Type AnalyticsType  `gorm:"size:32;not null;index;check:chk_analytics_type,type IN ('UserEngagement','SystemPerformance')"`
	Data datatypes.JSON `gorm:"not null"`
}

func (Analytics) TableName() string {
	return "analytics"
}

func (a *Analytics) Normalize() {}

func (a *Analytics) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("unknown analytics type %q", a.Type)
	}
	_, err := a.DecodeData()
	return err
}

func (a *Analytics) SetData(d AnalyticsData) error {
	raw, err := encodePayload(d)
	if err != nil {
		return err
	}
	a.Type = d.AnalyticsType()
	a.Data = raw
	return nil
}

func (a *Analytics) DecodeData() (AnalyticsData, error) {
	return DecodeAnalyticsData(a.Type, a.Data)
}
