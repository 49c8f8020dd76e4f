package util

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	for _, s := range []string{"0.01", "1", "100.5", "9999999.99"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"0", "-0.01", "-100", "10000000", "100000000"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

func TestValidateDate(t *testing.T) {
	for _, date := range []string{"2024-01-01", "2024-12-31", "2025-06-15"} {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
	for _, date := range []string{"", "2024/01/01", "01-01-2024", "2024-1-1", "not-a-date", "2024-13-01", "2024-01-32"} {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestValidateCategory(t *testing.T) {
	for _, category := range []string{"Food", "1", "Bills & Utilities"} {
		if err := ValidateCategory(category); err != nil {
			t.Errorf("ValidateCategory(%q) error = %v, want nil", category, err)
		}
	}
	for _, category := range []string{"", "   ", strings.Repeat("x", 65)} {
		if err := ValidateCategory(category); err == nil {
			t.Errorf("ValidateCategory(%q) error = nil, want error", category)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"a@b.co", "first.last@example.com"} {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) error = %v, want nil", email, err)
		}
	}
	for _, email := range []string{"", "plain", "a@b", "Name <a@b.co>", "a@@b.co"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) error = nil, want error", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret"); err != nil {
		t.Errorf("6 characters rejected: %v", err)
	}
	if err := ValidatePassword("12345"); err == nil {
		t.Error("5 characters accepted")
	}
	if err := ValidatePassword(strings.Repeat("p", 73)); err == nil {
		t.Error("73 bytes accepted")
	}
}
