package attendance

import "errors"

var (
	ErrDuplicateRecord = errors.New("attendance already recorded for this employee and date")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrInvalidStatus   = errors.New("invalid attendance status")
)
