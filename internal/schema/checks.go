package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var (
	ErrRequired = errors.New("is required")

	digitsRe        = regexp.MustCompile(`^[0-9]+$`)
	panRe           = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)
	vehicleNumberRe = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{1,4}$`)

	// validator.Validate is safe for concurrent use once built.
	fieldValidator = validator.New()
)

// CheckDigits requires exactly n ASCII digits.
func CheckDigits(value string, n int) error {
	if len(value) != n || !digitsRe.MatchString(value) {
		return fmt.Errorf("must be exactly %d digits", n)
	}
	return nil
}

func CheckMobile(value string) error  { return CheckDigits(value, 10) }
func CheckPhone(value string) error   { return CheckDigits(value, 10) }
func CheckPincode(value string) error { return CheckDigits(value, 6) }

// CheckPAN accepts 10 alphanumeric characters in any case; normalisation uppercases later.
func CheckPAN(value string) error {
	if !panRe.MatchString(value) {
		return fmt.Errorf("must be exactly 10 alphanumeric characters")
	}
	return nil
}

func CheckEmail(value string) error {
	if err := fieldValidator.Var(value, "required,email"); err != nil {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

// CheckDate requires YYYY-MM-DD and a date not after today.
func CheckDate(value string) error {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
	if d.After(time.Now().UTC()) {
		return fmt.Errorf("must not be in the future")
	}
	return nil
}

// ParseAmount parses a numeric string exactly, tolerating thousands separators.
func ParseAmount(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	return decimal.NewFromString(cleaned)
}

func CheckPositive(value string) error {
	d, err := ParseAmount(value)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func CheckNonNegative(value string) error {
	d, err := ParseAmount(value)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func CheckPositiveInteger(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func CheckNonNegativeInteger(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// CheckRange bounds an already well-formed number. A zero bound is open.
func CheckRange(value string, min, max int) error {
	if min == 0 && max == 0 {
		return nil
	}
	d, err := ParseAmount(value)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if min != 0 && d.LessThan(decimal.NewFromInt(int64(min))) {
		return fmt.Errorf("must be at least %d", min)
	}
	if max != 0 && d.GreaterThan(decimal.NewFromInt(int64(max))) {
		return fmt.Errorf("must be at most %d", max)
	}
	return nil
}

func CheckEnum(value string, options []string) error {
	if !lo.Contains(options, value) {
		return fmt.Errorf("must be one of %s", strings.Join(options, ", "))
	}
	return nil
}

// NormalizeVehicleNumber strips whitespace and uppercases.
func NormalizeVehicleNumber(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), ""))
}

// CheckVehicleNumber validates a registration number such as "KA 01 AB 1234".
func CheckVehicleNumber(value string) error {
	if !vehicleNumberRe.MatchString(NormalizeVehicleNumber(value)) {
		return fmt.Errorf("must be a valid vehicle registration number")
	}
	return nil
}
