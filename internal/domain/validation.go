package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// ValidationError collects per-field messages. errors.Is(err, ErrValidation)
// holds for any ValidationError.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

func (v *ValidationError) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

func (v *ValidationError) OrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

const MinPasswordLength = 8

type SignupRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	ReferralCode    string `json:"referralCode,omitempty"`
}

func (r *SignupRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.ReferralCode = strings.ToUpper(strings.TrimSpace(r.ReferralCode))
}

func (r SignupRequest) Validate() error {
	v := &ValidationError{}
	if !ValidEmail(r.Email) {
		v.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(r.Name) == "" {
		v.Add("name", "is required")
	}
	if len(r.Password) < MinPasswordLength {
		v.Addf("password", "must be at least %d characters", MinPasswordLength)
	}
	if r.Password != r.ConfirmPassword {
		v.Add("confirmPassword", "passwords do not match")
	}
	return v.OrNil()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email, "@")
}
