package deliveries

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/tokri-app/tokri-backend/pkg/errors"
)

var validate = newValidator()

// otpPattern: exactly four digits, no signs or separators.
var otpPattern = regexp.MustCompile(`^[0-9]{4}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return otpPattern.MatchString(fl.Field().String())
	})
	return v
}

// UpdateRequest is a rider's status update. OTPs are mandatory at the
// handover points: pickup_otp when picking up, delivery_otp plus a proof
// photo when delivering.
type UpdateRequest struct {
	Status        string `json:"status" validate:"required"`
	PickupOtp     string `json:"pickup_otp" validate:"required_if=Status picked_up,omitempty,otp"`
	DeliveryOtp   string `json:"delivery_otp" validate:"required_if=Status delivered,omitempty,otp"`
	ProofPhotoURL string `json:"proof_photo_url" validate:"required_if=Status delivered"`
}

// ValidateUpdate checks an update request and reports every violation at
// once rather than stopping at the first.
func ValidateUpdate(req UpdateRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required when %s", strings.ToLower(fe.Param()))
	case "otp":
		return "must be exactly 4 digits"
	}
	return "is invalid"
}
