package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookify-backend/pkg/enums"
)

type ServiceBooking struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ServiceID   uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	Status      enums.BookingStatus `gorm:"column:status;type:booking_status;not null;default:'PENDING'"`
	ScheduledAt time.Time           `gorm:"column:scheduled_at;not null"`
	Notes       *string             `gorm:"column:notes"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
