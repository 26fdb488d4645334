package entity

type UserRole string

const (
	RoleProfessional UserRole = "Professional"
	RoleClient       UserRole = "Client"
	RoleAdmin        UserRole = "Admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleProfessional, RoleClient, RoleAdmin:
		return true
	}
	return false
}

type ScheduleStatus string

const (
	StatusAvailable   ScheduleStatus = "Available"
	StatusBooked      ScheduleStatus = "Booked"
	StatusUnavailable ScheduleStatus = "Unavailable"
)

func (s ScheduleStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusUnavailable:
		return true
	}
	return false
}

type TimeBlock string

const (
	BlockMorning   TimeBlock = "Morning"
	BlockAfternoon TimeBlock = "Afternoon"
	BlockEvening   TimeBlock = "Evening"
	BlockNight     TimeBlock = "Night"
)

func (b TimeBlock) Valid() bool {
	switch b {
	case BlockMorning, BlockAfternoon, BlockEvening, BlockNight:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationEmail NotificationType = "Email"
	NotificationSMS   NotificationType = "SMS"
	NotificationInApp NotificationType = "InApp"
)

func (n NotificationType) Valid() bool {
	switch n {
	case NotificationEmail, NotificationSMS, NotificationInApp:
		return true
	}
	return false
}

type IntegrationType string

const (
	IntegrationScheduleChange      IntegrationType = "ScheduleChange"
	IntegrationBookingConfirmation IntegrationType = "BookingConfirmation"
)

func (i IntegrationType) Valid() bool {
	switch i {
	case IntegrationScheduleChange, IntegrationBookingConfirmation:
		return true
	}
	return false
}

type AnalyticsType string

const (
	AnalyticsUserEngagement    AnalyticsType = "UserEngagement"
	AnalyticsSystemPerformance AnalyticsType = "SystemPerformance"
)

func (a AnalyticsType) Valid() bool {
	switch a {
	case AnalyticsUserEngagement, AnalyticsSystemPerformance:
		return true
	}
	return false
}
