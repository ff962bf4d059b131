package selftest

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/laminator/internal/clock"
)

var errTestRTC = errors.New("test rtc error")

// brokenRTC fails on read.
type brokenRTC struct{}

func (brokenRTC) Set(DateTime) error { return nil }

func (brokenRTC) Now() (DateTime, error) { return DateTime{}, errTestRTC }

// laggingRTC returns a value before the programmed one.
type laggingRTC struct{}

func (laggingRTC) Set(DateTime) error { return nil }

func (laggingRTC) Now() (DateTime, error) {
	return FromTime(DefaultInitialDateTime.Time().Add(-time.Hour)), nil
}

// TestDateTime_Validate checks the default value and impossible dates.
func TestDateTime_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultInitialDateTime.Validate())

	wrongDay := DefaultInitialDateTime
	wrongDay.Weekday = time.Monday
	require.ErrorIs(t, wrongDay.Validate(), ErrInvalidDateTime)

	impossible := DefaultInitialDateTime
	impossible.Day = 32
	require.ErrorIs(t, impossible.Validate(), ErrInvalidDateTime)

	require.Equal(t, DefaultInitialDateTime, FromTime(DefaultInitialDateTime.Time()))
}

// TestSoftRTC verifies the clock is stopped until set and then advances with the provider.
func TestSoftRTC(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rtc := NewSoftRTC(clock.NewSleeper())

		_, err := rtc.Now()
		require.ErrorIs(t, err, ErrRTCNotRunning)

		require.NoError(t, rtc.Set(DefaultInitialDateTime))

		time.Sleep(90 * time.Second)

		now, err := rtc.Now()
		require.NoError(t, err)
		require.Equal(t, 31, now.Minute)
		require.Equal(t, 30, now.Second)
	})
}

// TestCheckRTC covers the successful read-back and the failure modes.
func TestCheckRTC(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		provider := clock.NewSleeper()

		result, err := CheckRTC(context.Background(), NewSoftRTC(provider), provider, DefaultInitialDateTime)
		require.NoError(t, err)
		require.Equal(t, DefaultInitialDateTime, result.Initial)
		require.Equal(t, DefaultInitialDateTime, result.Read)

		_, err = CheckRTC(context.Background(), brokenRTC{}, provider, DefaultInitialDateTime)
		require.ErrorIs(t, err, errTestRTC)

		_, err = CheckRTC(context.Background(), laggingRTC{}, provider, DefaultInitialDateTime)
		require.ErrorIs(t, err, ErrRTCDrift)

		bad := DefaultInitialDateTime
		bad.Month = 13
		_, err = CheckRTC(context.Background(), NewSoftRTC(provider), provider, bad)
		require.ErrorIs(t, err, ErrInvalidDateTime)
	})
}
