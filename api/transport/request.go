package transport

import "time"

type LeadRequest struct {
	ID             string            `json:"id"`
	BusinessID     string            `json:"businessId"`
	CommerceID     string            `json:"commerceId"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Source         string            `json:"source"`
	Message        string            `json:"message"`
	Notes          string            `json:"notes"`
	AssignedUserID string            `json:"assignedUserId"`
	Metadata       map[string]string `json:"metadata"`
}

type LeadPatchRequest struct {
	BusinessID     *string           `json:"businessId"`
	CommerceID     *string           `json:"commerceId"`
	Name           *string           `json:"name"`
	Email          *string           `json:"email"`
	Phone          *string           `json:"phone"`
	Source         *string           `json:"source"`
	Notes          *string           `json:"notes"`
	AssignedUserID *string           `json:"assignedUserId"`
	Metadata       map[string]string `json:"metadata"`
	Active         *bool             `json:"active"`
}

type StageRequest struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
	UserID string `json:"userId"`
}

type LeadContactRequest struct {
	Type        string     `json:"type"`
	Comment     string     `json:"comment"`
	ContactedAt *time.Time `json:"contactedAt"`
	UserID      string     `json:"userId"`
}

type ConvertRequest struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type BookingRequest struct {
	ID             string            `json:"id"`
	BusinessID     string            `json:"businessId"`
	CommerceID     string            `json:"commerceId"`
	ClientID       string            `json:"clientId"`
	ServiceID      string            `json:"serviceId"`
	ProfessionalID string            `json:"professionalId"`
	StartAt        time.Time         `json:"startAt"`
	EndAt          time.Time         `json:"endAt"`
	Status         string            `json:"status"`
	Notes          string            `json:"notes"`
	Price          float64           `json:"price"`
	Metadata       map[string]string `json:"metadata"`
}

type BookingPatchRequest struct {
	ServiceID      *string           `json:"serviceId"`
	ProfessionalID *string           `json:"professionalId"`
	StartAt        *time.Time        `json:"startAt"`
	EndAt          *time.Time        `json:"endAt"`
	Notes          *string           `json:"notes"`
	Price          *float64          `json:"price"`
	Metadata       map[string]string `json:"metadata"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type RoleRequest struct {
	ID          string   `json:"id"`
	BusinessID  string   `json:"businessId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type RolePatchRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}
