package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// ReservationCharges are the price components of a stay
type ReservationCharges struct {
	PricePerNight decimal.Decimal
	CleaningFee   decimal.Decimal
	OtherExpenses decimal.Decimal
	Taxes         decimal.Decimal
	ParkingFee    decimal.Decimal
}

// ReservationCostBreakdown provides detailed cost breakdown
type ReservationCostBreakdown struct {
	Nights        int32
	Accommodation decimal.Decimal
	Extras        decimal.Decimal
	Total         decimal.Decimal
}

// ParseDate converts a yyyy-mm-dd formatted string into a Date struct
func ParseDate(dateStr string) (Date, error) {
	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid year: %v", err)
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid month: %v", err)
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid day: %v", err)
	}

	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("month must be between 1 and 12")
	}

	if day < 1 || day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("day must be between 1 and %d", DaysInMonth(year, month))
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// Time returns midnight UTC of the date, matching how DATE columns are scanned
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseCalendarDate parses yyyy-mm-dd straight into a time.Time at midnight UTC
func ParseCalendarDate(dateStr string) (time.Time, error) {
	d, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		// Check for leap year
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}

	// Months with 30 days: April, June, September, November
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}

	return 31
}

// CalculateNights counts the nights between check-in and check-out. Only the
// calendar date of each value is used; the check-out day is not a night.
func CalculateNights(checkIn, checkOut time.Time) (int32, error) {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)

	nights := int32(out.Sub(in).Hours() / 24)
	if nights <= 0 {
		return 0, fmt.Errorf("check-out date must be after check-in date")
	}
	return nights, nil
}

// CalculateReservationTotal computes
// nights*pricePerNight + cleaningFee + otherExpenses + taxes + parkingFee
func CalculateReservationTotal(nights int32, c ReservationCharges) decimal.Decimal {
	return CalculateReservationCostWithBreakdown(nights, c).Total
}

// CalculateReservationCostWithBreakdown splits the total into the nightly part
// and the flat extras
func CalculateReservationCostWithBreakdown(nights int32, c ReservationCharges) ReservationCostBreakdown {
	accommodation := c.PricePerNight.Mul(decimal.NewFromInt32(nights))
	extras := c.CleaningFee.Add(c.OtherExpenses).Add(c.Taxes).Add(c.ParkingFee)
	return ReservationCostBreakdown{
		Nights:        nights,
		Accommodation: accommodation,
		Extras:        extras,
		Total:         accommodation.Add(extras),
	}
}
