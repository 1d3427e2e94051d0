package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	assert.NoError(t, v.RegisterValidation("hhmm", validateHHMM))
	assert.NoError(t, v.RegisterValidation("datekey", validateDateKey))

	type payload struct {
		Time string `validate:"omitempty,hhmm"`
		Date string `validate:"omitempty,datekey"`
	}

	tests := []struct {
		name    string
		in      payload
		wantErr bool
	}{
		{"valid time", payload{Time: "09:30"}, false},
		{"midnight boundary", payload{Time: "24:00"}, false},
		{"hour out of range", payload{Time: "25:00"}, true},
		{"missing padding", payload{Time: "9:30"}, true},
		{"not a time", payload{Time: "morning"}, true},
		{"valid date", payload{Date: "2026-08-24"}, false},
		{"impossible date", payload{Date: "2026-02-30"}, true},
		{"wrong layout", payload{Date: "24/08/2026"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	v := validator.New()
	type payload struct {
		Name string `validate:"required"`
		Size int    `validate:"min=1"`
	}
	err := v.Struct(payload{})
	verrs, ok := err.(validator.ValidationErrors)
	assert.True(t, ok)

	ve := NewValidationError(verrs)
	assert.Equal(t, "Name is required", ve.Errors["Name"])
	assert.Equal(t, "Size must be at least 1", ve.Errors["Size"])
	assert.Contains(t, ve.Error(), "Name is required")
}
