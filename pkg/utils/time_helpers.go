package utils

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ParseDate разбирает дату "2006-01-02" в указанной таймзоне (полночь).
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("неверный формат даты %q: %w", value, err)
	}
	return t, nil
}

// ParseMinutes переводит время вида "15:04" в минуты от полуночи.
func ParseMinutes(value string) (int, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return 0, fmt.Errorf("неверный формат времени %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinutes переводит минуты от полуночи обратно в строку "15:04".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// CombineDateMinutes собирает момент времени из даты и минут от полуночи.
func CombineDateMinutes(date time.Time, minutes int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, loc)
}

// DateOnly обнуляет время, оставляя только дату в таймзоне loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsDateInPast — дата раньше сегодняшнего дня (сравниваются только даты).
func IsDateInPast(date, now time.Time, loc *time.Location) bool {
	return DateOnly(date, loc).Before(DateOnly(now, loc))
}

// IsSameDay — обе даты приходятся на один день в таймзоне loc.
func IsSameDay(a, b time.Time, loc *time.Location) bool {
	return DateOnly(a, loc).Equal(DateOnly(b, loc))
}
