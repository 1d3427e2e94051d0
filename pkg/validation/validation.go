package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/saimali7/tour-crm/pkg/timeutil"
)

// RegisterCustomValidators installs the dispatch-domain binding validators on
// gin's validator engine. Call once at startup.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("hhmm", validateHHMM)
	_ = v.RegisterValidation("datekey", validateDateKey)
}

// validateHHMM accepts "HH:MM" 24-hour times (incl. the 24:00 boundary)
func validateHHMM(fl validator.FieldLevel) bool {
	return timeutil.IsValid(fl.Field().String())
}

// validateDateKey accepts "YYYY-MM-DD" calendar days
func validateDateKey(fl validator.FieldLevel) bool {
	_, err := timeutil.DayOfWeek(fl.Field().String())
	return err == nil
}
