package selftest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/laminator/internal/clock"
	"github.com/oshokin/laminator/internal/logger"
)

// DateTime is the calendar value exchanged with a real-time clock.
type DateTime struct {
	Year    int
	Month   time.Month
	Day     int
	Weekday time.Weekday
	Hour    int
	Minute  int
	Second  int
}

// DefaultInitialDateTime is the value the RTC check programs by default.
var DefaultInitialDateTime = DateTime{ //nolint:gochecknoglobals // Read-only reference value.
	Year:    2022,
	Month:   time.October,
	Day:     7,
	Weekday: time.Friday,
	Hour:    23,
	Minute:  30,
	Second:  0,
}

// FromTime converts t to a DateTime.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Year:    t.Year(),
		Month:   t.Month(),
		Day:     t.Day(),
		Weekday: t.Weekday(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

// Time returns the DateTime as a UTC time.
func (d DateTime) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// Validate checks the calendar fields, including the weekday.
func (d DateTime) Validate() error {
	t := d.Time()
	if t.Year() != d.Year || t.Month() != d.Month || t.Day() != d.Day ||
		t.Hour() != d.Hour || t.Minute() != d.Minute || t.Second() != d.Second {
		return fmt.Errorf("%w: %+v", ErrInvalidDateTime, d)
	}

	if t.Weekday() != d.Weekday {
		return fmt.Errorf("%w: %s is a %s, not %s", ErrInvalidDateTime, t.Format(time.DateOnly), t.Weekday(), d.Weekday)
	}

	return nil
}

// RealTimeClock is a settable calendar clock.
type RealTimeClock interface {
	Set(value DateTime) error
	Now() (DateTime, error)
}

var (
	// ErrInvalidDateTime is returned for impossible calendar values.
	ErrInvalidDateTime = errors.New("invalid date time")
	// ErrRTCNotRunning is returned when the clock is read before being set.
	ErrRTCNotRunning = errors.New("rtc not running")
	// ErrRTCDrift is returned when the read-back value is off.
	ErrRTCDrift = errors.New("rtc read-back out of tolerance")
)

// DefaultRTCTolerance bounds how far the read-back may be ahead of the set value.
const DefaultRTCTolerance = 2 * time.Second

// SoftRTC keeps calendar time on top of a monotonic provider.
type SoftRTC struct {
	// provider supplies monotonic time.
	provider clock.Provider
	// base is the programmed calendar value.
	base time.Time
	// setAt is when base was programmed.
	setAt time.Time
	// running reports whether Set was called.
	running bool
	// mu protects the fields above.
	mu sync.Mutex
}

// NewSoftRTC returns a stopped clock driven by provider.
func NewSoftRTC(provider clock.Provider) *SoftRTC {
	return &SoftRTC{provider: provider}
}

// Set programs the clock.
func (r *SoftRTC) Set(value DateTime) error {
	if err := value.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.base = value.Time()
	r.setAt = r.provider.Now()
	r.running = true

	return nil
}

// Now reads the clock.
func (r *SoftRTC) Now() (DateTime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return DateTime{}, ErrRTCNotRunning
	}

	return FromTime(r.base.Add(r.provider.Now().Sub(r.setAt))), nil
}

// RTCResult holds the values observed by CheckRTC.
type RTCResult struct {
	Initial DateTime
	Read    DateTime
}

// CheckRTC programs initial, waits the provider floor and reads the clock back.
// Reads sooner than the floor after programming were observed to be erroneous.
func CheckRTC(ctx context.Context, rtc RealTimeClock, provider clock.Provider, initial DateTime) (*RTCResult, error) {
	ctx = logger.WithName(ctx, "rtc-check")

	logger.InfoKV(ctx, "Init time",
		"day", initial.Day,
		"hour", initial.Hour,
		"minute", initial.Minute,
		"second", initial.Second,
	)

	if err := rtc.Set(initial); err != nil {
		return nil, fmt.Errorf("set rtc: %w", err)
	}

	if err := provider.Wait(provider.MinDuration()); err != nil {
		return nil, fmt.Errorf("wait after set: %w", err)
	}

	now, err := rtc.Now()
	if err != nil {
		return nil, fmt.Errorf("read rtc: %w", err)
	}

	logger.InfoKV(ctx, "Now",
		"day", now.Day,
		"hour", now.Hour,
		"minute", now.Minute,
		"second", now.Second,
	)

	drift := now.Time().Sub(initial.Time())
	if drift < 0 || drift > DefaultRTCTolerance {
		return nil, fmt.Errorf("%w: read %v after setting %v", ErrRTCDrift, now.Time(), initial.Time())
	}

	return &RTCResult{
		Initial: initial,
		Read:    now,
	}, nil
}
