package converter

import (
	"fixit-server/internal/delivery/dto"
	"fixit-server/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	items := make([]dto.BookingItemResponse, len(booking.Items))
	for i, item := range booking.Items {
		items[i] = dto.BookingItemResponse{
			Label: item.Label,
			Price: item.Price,
		}
	}

	return &dto.BookingResponse{
		ID:               booking.ID,
		WorkerID:         booking.WorkerID,
		UserID:           booking.UserID,
		WorkerName:       booking.WorkerName,
		WorkerPhone:      booking.WorkerPhone,
		UserName:         booking.UserName,
		UserPhone:        booking.UserPhone,
		UserAddress:      booking.UserAddress,
		TimeSlot:         booking.TimeSlot,
		Items:            items,
		TotalPrice:       booking.TotalPrice,
		Status:           string(booking.Status),
		ConfirmationCode: booking.ConfirmationCode,
		PaymentStatus:    string(booking.PaymentStatus),
		RequestSentAt:    booking.RequestSentAt,
		WorkerViewedAt:   booking.WorkerViewedAt,
		DecisionAt:       booking.DecisionAt,
		CreatedAt:        booking.CreatedAt,
		UpdatedAt:        booking.UpdatedAt,
	}
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i, booking := range bookings {
		resp := BookingToResponse(&booking)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}

// BookingEventsToResponses converts the audit trail for API exposure
func BookingEventsToResponses(events []entity.BookingEvent) []dto.BookingEventResponse {
	responses := make([]dto.BookingEventResponse, len(events))
	for i, event := range events {
		responses[i] = dto.BookingEventResponse{
			Actor:      event.Actor,
			FromStatus: string(event.FromStatus),
			ToStatus:   string(event.ToStatus),
			Note:       event.Note,
			CreatedAt:  event.CreatedAt,
		}
	}
	return responses
}
