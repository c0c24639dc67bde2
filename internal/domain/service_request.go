package domain

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
)

// ServiceIcon is a closed identifier set resolved by the frontend to a
// renderer. Anything outside the set falls back to IconDefault.
type ServiceIcon string

const (
	IconDefault     ServiceIcon = "bell"
	IconCleaning    ServiceIcon = "broom"
	IconFood        ServiceIcon = "utensils"
	IconLaundry     ServiceIcon = "shirt"
	IconMaintenance ServiceIcon = "wrench"
	IconTransport   ServiceIcon = "car"
)

var knownIcons = map[ServiceIcon]struct{}{
	IconDefault:     {},
	IconCleaning:    {},
	IconFood:        {},
	IconLaundry:     {},
	IconMaintenance: {},
	IconTransport:   {},
}

// ResolveIcon maps an arbitrary stored identifier to a member of the closed
// icon set, substituting the fallback for unknown values.
func ResolveIcon(s string) ServiceIcon {
	if _, ok := knownIcons[ServiceIcon(s)]; ok {
		return ServiceIcon(s)
	}
	return IconDefault
}

type ServiceType struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Icon    ServiceIcon `json:"icon"`
	HasCost bool        `json:"has_cost"`
}

type ServiceRequest struct {
	ID            int64         `json:"id"`
	RoomID        int64         `json:"room_id"`
	RoomNumber    string        `json:"room_number,omitempty"`
	ServiceTypeID int64         `json:"service_type_id"`
	ServiceName   string        `json:"service_name,omitempty"`
	Status        RequestStatus `json:"status"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}
