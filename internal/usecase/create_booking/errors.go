package create_booking

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrCapacityExceeded возвращается, когда пересекающихся бронирований уже maxCapacity
	ErrCapacityExceeded = errors.New("create_booking: service capacity exceeded for requested time")

	// ErrInvalidTimeSlot возвращается, когда время не совпадает ни с одним слотом дня
	// (только при включенном выравнивании по слотам)
	ErrInvalidTimeSlot = errors.New("create_booking: start time is not a slot of the service")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
