package app

import (
	"context"
	"fmt"

	"hotel_gestion/internal/domain"
)

type RoomService struct {
	rooms domain.RoomRepository
}

func NewRoomService(rooms domain.RoomRepository) *RoomService {
	return &RoomService{rooms: rooms}
}

func (s *RoomService) List(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.ListRooms(ctx)
}

func (s *RoomService) UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown room status %q", domain.ErrInvalidTransition, status)
	}
	return s.rooms.UpdateRoomStatus(ctx, id, status)
}
