package validator_test

import (
	"strings"
	"testing"

	"pgnest/shared/validator"
)

type bookingTestStruct struct {
	RoomID       string `validate:"required,uuid"               json:"room_id"`
	StartDate    string `validate:"required"                    json:"start_date"`
	DurationDays int    `validate:"required,gt=0"               json:"duration_days"`
	Gender       string `validate:"omitempty,oneof=male female" json:"gender"`
}

func validBooking() *bookingTestStruct {
	return &bookingTestStruct{
		RoomID:       "550e8400-e29b-41d4-a716-446655440000",
		StartDate:    "2026-04-01",
		DurationDays: 30,
		Gender:       "female",
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*bookingTestStruct)
		expectError bool
	}{
		{
			name:        "valid struct",
			mutate:      func(*bookingTestStruct) {},
			expectError: false,
		},
		{
			name:        "missing required field",
			mutate:      func(b *bookingTestStruct) { b.StartDate = "" },
			expectError: true,
		},
		{
			name:        "invalid uuid",
			mutate:      func(b *bookingTestStruct) { b.RoomID = "not-a-uuid" },
			expectError: true,
		},
		{
			name:        "non-positive duration",
			mutate:      func(b *bookingTestStruct) { b.DurationDays = -3 },
			expectError: true,
		},
		{
			name:        "invalid oneof",
			mutate:      func(b *bookingTestStruct) { b.Gender = "other" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validBooking()
			tt.mutate(data)

			err := validator.ValidateStruct(data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name        string
		field       interface{}
		tag         string
		expectError bool
	}{
		{
			name:        "valid required string",
			field:       "test",
			tag:         "required",
			expectError: false,
		},
		{
			name:        "empty required string",
			field:       "",
			tag:         "required",
			expectError: true,
		},
		{
			name:        "valid number in range",
			field:       25,
			tag:         "gte=0,lte=100",
			expectError: false,
		},
		{
			name:        "number out of range",
			field:       150,
			tag:         "gte=0,lte=100",
			expectError: true,
		},
		{
			name:        "valid oneof",
			field:       "accepted",
			tag:         "oneof=accepted declined revoked",
			expectError: false,
		},
		{
			name:        "invalid oneof",
			field:       "confirmed",
			tag:         "oneof=accepted declined revoked",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, tt.tag)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		jsonBody    string
		expectError bool
	}{
		{
			name:        "valid JSON",
			jsonBody:    `{"room_id":"550e8400-e29b-41d4-a716-446655440000","start_date":"2026-04-01","duration_days":30}`,
			expectError: false,
		},
		{
			name:        "invalid field value",
			jsonBody:    `{"room_id":"not-a-uuid","start_date":"2026-04-01","duration_days":30}`,
			expectError: true,
		},
		{
			name:        "malformed JSON",
			jsonBody:    `{"room_id":}`,
			expectError: true,
		},
		{
			name:        "empty JSON",
			jsonBody:    `{}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.jsonBody)
			var data bookingTestStruct
			err := validator.Validate(reader, &data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	data := &bookingTestStruct{}
	err := validator.ValidateStruct(data)

	if err == nil {
		t.Fatal("expected validation error for empty struct")
	}

	errorMsg := err.Error()

	if !strings.Contains(errorMsg, "required") || errorMsg == "" {
		t.Errorf("expected descriptive error message containing 'required', got: %s", errorMsg)
	}
}
