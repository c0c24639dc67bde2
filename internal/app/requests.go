package app

import (
	"context"
	"fmt"

	"hotel_gestion/internal/domain"
)

type RequestService struct {
	requests domain.RequestRepository
	rooms    domain.RoomRepository
	notifier *NotificationService
}

func NewRequestService(requests domain.RequestRepository, rooms domain.RoomRepository, notifier *NotificationService) *RequestService {
	return &RequestService{requests: requests, rooms: rooms, notifier: notifier}
}

// CreateForRoom registers a guest-initiated service request and notifies
// staff. The caller has already authenticated the guest session for roomID.
func (s *RequestService) CreateForRoom(ctx context.Context, roomID, serviceTypeID int64, notes string) (domain.ServiceRequest, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("room %d: %w", roomID, err)
	}
	st, err := s.requests.GetServiceType(ctx, serviceTypeID)
	if err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("service type %d: %w", serviceTypeID, err)
	}

	sr := domain.ServiceRequest{
		RoomID:        roomID,
		RoomNumber:    room.Number,
		ServiceTypeID: serviceTypeID,
		ServiceName:   st.Name,
		Status:        domain.RequestPending,
		Notes:         notes,
	}
	if err := s.requests.CreateRequest(ctx, &sr); err != nil {
		return domain.ServiceRequest{}, err
	}

	s.notifier.Notify(ctx, domain.NotifNewRequest,
		"Nueva solicitud",
		fmt.Sprintf("Habitación %s solicita %s", room.Number, st.Name))
	return sr, nil
}

func (s *RequestService) List(ctx context.Context, onlyPending bool) ([]domain.ServiceRequest, error) {
	return s.requests.ListRequests(ctx, onlyPending)
}

func (s *RequestService) Complete(ctx context.Context, id int64) error {
	return s.requests.CompleteRequest(ctx, id)
}

// ServiceTypes lists the catalogue with icons normalized to the closed set.
func (s *RequestService) ServiceTypes(ctx context.Context) ([]domain.ServiceType, error) {
	types, err := s.requests.ListServiceTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		types[i].Icon = domain.ResolveIcon(string(types[i].Icon))
	}
	return types, nil
}
