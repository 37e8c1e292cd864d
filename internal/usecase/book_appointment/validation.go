package book_appointment

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

var validate = validator.New()

// validateRequest валидирует запрос и нормализует телефон к формату E.164
func validateRequest(req *Request, region string) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidInput)
	}

	req.ClientEmail = strings.TrimSpace(req.ClientEmail)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Service = strings.TrimSpace(req.Service)

	if req.TimeSlotID == uuid.Nil {
		return fmt.Errorf("%w: timeSlotId is required", ErrInvalidInput)
	}

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	phone, err := normalizePhone(req.ClientPhone, region)
	if err != nil {
		return err
	}
	req.ClientPhone = phone

	return nil
}

// normalizePhone проверяет номер и приводит его к E.164
func normalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", fmt.Errorf("%w: clientPhone %q: %v", ErrInvalidInput, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: clientPhone %q is not a valid number", ErrInvalidInput, raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
