package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The Spacegom board game runs on its own calendar: 35-day months,
// 12-month years, both 1-indexed, starting at 01-01-1. Salaries are
// paid on day 35 of every month.
const (
	daysPerMonth  = 35
	monthsPerYear = 12
	paydayDay     = 35
)

var ErrInvalidDate = errors.New("invalid game date")

// GameDate is an immutable calendar position. The zero value is not a
// valid date; IsZero distinguishes "unset" from real dates.
type GameDate struct {
	Year  int
	Month int
	Day   int
}

func NewGameDate(year, month, day int) (GameDate, error) {
	if year < 1 || month < 1 || month > monthsPerYear || day < 1 || day > daysPerMonth {
		return GameDate{}, fmt.Errorf("%w: %d-%d-%d", ErrInvalidDate, day, month, year)
	}
	return GameDate{Year: year, Month: month, Day: day}, nil
}

// ParseGameDate reads the board-sheet "dd-mm-yy" form, day first.
func ParseGameDate(s string) (GameDate, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return GameDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return GameDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewGameDate(year, month, day)
}

func (d GameDate) String() string {
	return fmt.Sprintf("%02d-%02d-%d", d.Day, d.Month, d.Year)
}

func (d GameDate) IsZero() bool {
	return d == GameDate{}
}

func (d GameDate) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte(""), nil
	}
	return []byte(d.String()), nil
}

func (d *GameDate) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = GameDate{}
		return nil
	}
	parsed, err := ParseGameDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays advances n days, cascading day overflow into months and
// months into years.
func (d GameDate) AddDays(n int) GameDate {
	day := d.Day + n
	month := d.Month
	year := d.Year
	for day > daysPerMonth {
		day -= daysPerMonth
		month++
		if month > monthsPerYear {
			month = 1
			year++
		}
	}
	return GameDate{Year: year, Month: month, Day: day}
}

// SubDays is the inverse of AddDays with symmetric rollunder.
func (d GameDate) SubDays(n int) GameDate {
	day := d.Day - n
	month := d.Month
	year := d.Year
	for day < 1 {
		day += daysPerMonth
		month--
		if month < 1 {
			month = monthsPerYear
			year--
		}
	}
	return GameDate{Year: year, Month: month, Day: day}
}

// Compare orders dates by (year, month, day): -1, 0 or 1.
func (d GameDate) Compare(other GameDate) int {
	if d.Year != other.Year {
		if d.Year < other.Year {
			return -1
		}
		return 1
	}
	if d.Month != other.Month {
		if d.Month < other.Month {
			return -1
		}
		return 1
	}
	if d.Day != other.Day {
		if d.Day < other.Day {
			return -1
		}
		return 1
	}
	return 0
}

func (d GameDate) Before(other GameDate) bool {
	return d.Compare(other) < 0
}

// IsPayday reports whether salaries fall due on this date.
func (d GameDate) IsPayday() bool {
	return d.Day == paydayDay
}

// NextPayday returns the next day-35 date. A date already on day 35
// yields the following month's payday: payroll reschedules from the
// event's own date, so returning the same date would pay twice.
func (d GameDate) NextPayday() GameDate {
	if d.Day < paydayDay {
		return GameDate{Year: d.Year, Month: d.Month, Day: paydayDay}
	}
	month := d.Month + 1
	year := d.Year
	if month > monthsPerYear {
		month = 1
		year++
	}
	return GameDate{Year: year, Month: month, Day: paydayDay}
}

func (d GameDate) absoluteDays() int {
	return (d.Year-1)*monthsPerYear*daysPerMonth + (d.Month-1)*daysPerMonth + d.Day
}

// DaysBetween returns other minus d in days; negative when other is earlier.
func (d GameDate) DaysBetween(other GameDate) int {
	return other.absoluteDays() - d.absoluteDays()
}
