package checkout

import (
	"fmt"
	"net/mail"
	"strings"
)

const DefaultCountry = "US"

type Shipping struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type Payment struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// FormError lists the fields that stopped a step from advancing.
type FormError struct {
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

func (e *FormError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("validation: %s", strings.Join(parts, "; "))
}

func (e *FormError) Unwrap() error { return ErrValidation }

type field struct {
	name  string
	value *string
}

func checkRequired(fields []field) *FormError {
	fe := &FormError{}
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			fe.Missing = append(fe.Missing, f.name)
		}
	}
	return fe
}

func (s *Shipping) Normalize() error {
	fe := checkRequired([]field{
		{"firstName", &s.FirstName},
		{"lastName", &s.LastName},
		{"email", &s.Email},
		{"phone", &s.Phone},
		{"address", &s.Address},
		{"city", &s.City},
		{"state", &s.State},
		{"zip", &s.Zip},
	})
	if s.Email != "" {
		if addr, err := mail.ParseAddress(s.Email); err != nil || addr.Address != s.Email {
			fe.Invalid = append(fe.Invalid, "email")
		}
	}
	s.Country = strings.TrimSpace(s.Country)
	if s.Country == "" {
		s.Country = DefaultCountry
	}
	if len(fe.Missing) > 0 || len(fe.Invalid) > 0 {
		return fe
	}
	return nil
}

func (s Shipping) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (p *Payment) Normalize() error {
	fe := checkRequired([]field{
		{"cardNumber", &p.CardNumber},
		{"cardName", &p.CardName},
		{"expiry", &p.Expiry},
		{"cvv", &p.CVV},
	})
	if len(fe.Missing) > 0 {
		return fe
	}
	return nil
}

// Last4 returns the final four digits of the card number.
func (p Payment) Last4() string {
	digits := make([]rune, 0, len(p.CardNumber))
	for _, r := range p.CardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
