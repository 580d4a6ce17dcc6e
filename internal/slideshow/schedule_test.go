package slideshow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "07:00", want: TimeOfDay{Hour: 7}},
		{input: "22:45", want: TimeOfDay{Hour: 22, Minute: 45}},
		{input: "00:00", want: TimeOfDay{}},
		{input: "24:00", wantErr: true},
		{input: "7am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestWindow_Contains(t *testing.T) {
	t.Parallel()

	day := Window{On: MustParseTimeOfDay("07:00"), Off: MustParseTimeOfDay("22:00")}
	overnight := Window{On: MustParseTimeOfDay("20:00"), Off: MustParseTimeOfDay("02:00")}

	tests := []struct {
		name   string
		window Window
		now    time.Time
		want   bool
	}{
		{"day: at turn on", day, at(2, 7, 0), true},
		{"day: midday", day, at(2, 12, 0), true},
		{"day: last minute", day, time.Date(2026, 3, 2, 21, 59, 59, 0, time.UTC), true},
		{"day: at turn off", day, at(2, 22, 0), false},
		{"day: night", day, at(2, 3, 0), false},
		{"overnight: evening", overnight, at(2, 21, 0), true},
		{"overnight: after midnight", overnight, at(2, 1, 30), true},
		{"overnight: at turn off", overnight, at(2, 2, 0), false},
		{"overnight: afternoon", overnight, at(2, 15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.window.Contains(tt.now))
		})
	}
}

func TestWindow_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultWindow.Validate())

	err := Window{On: TimeOfDay{Hour: 8}, Off: TimeOfDay{Hour: 8}}.Validate()
	require.ErrorIs(t, err, ErrInvalidWindow)
}

func TestUntilNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		now    time.Time
		target string
		want   time.Duration
	}{
		{"later today", at(2, 10, 0), "22:00", 12 * time.Hour},
		{"tomorrow morning", at(2, 23, 30), "07:00", 7*time.Hour + 30*time.Minute},
		{"exactly now is a full day away", at(2, 22, 0), "22:00", 24 * time.Hour},
		{"just past target", time.Date(2026, 3, 2, 22, 0, 30, 0, time.UTC), "22:00", 23*time.Hour + 59*time.Minute + 30*time.Second},
		{"sub-second before target", time.Date(2026, 3, 2, 6, 59, 59, 500_000_000, time.UTC), "07:00", 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UntilNext(tt.now, MustParseTimeOfDay(tt.target)))
		})
	}
}

func TestUntilNext_AcrossDaylightSaving(t *testing.T) {
	t.Parallel()

	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	// Clocks go forward at 01:00 on 29 March 2026, so the night is an hour short.
	now := time.Date(2026, time.March, 28, 22, 0, 0, 0, london)
	assert.Equal(t, 8*time.Hour, UntilNext(now, MustParseTimeOfDay("07:00")))
}

func TestMinutesUntil(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		now    time.Time
		target string
		want   int
	}{
		{"later today", at(2, 10, 0), "22:00", 720},
		{"wraps midnight", at(2, 23, 30), "07:00", 450},
		{"same minute is a full day", at(2, 7, 0), "07:00", 1440},
		{"one minute past", at(2, 7, 1), "07:00", 1439},
		{"one minute before", at(2, 6, 59), "07:00", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinutesUntil(tt.now, MustParseTimeOfDay(tt.target)))
		})
	}
}

func TestDelays_AreAlwaysPositive(t *testing.T) {
	t.Parallel()

	targets := []TimeOfDay{{}, {Hour: 7}, {Hour: 12, Minute: 30}, {Hour: 22}, {Hour: 23, Minute: 59}}
	start := at(2, 0, 0)

	for m := 0; m < minutesPerDay; m++ {
		now := start.Add(time.Duration(m)*time.Minute + 17*time.Second)
		for _, target := range targets {
			minutes := MinutesUntil(now, target)
			require.GreaterOrEqual(t, minutes, 1)
			require.LessOrEqual(t, minutes, minutesPerDay)

			d := UntilNext(now, target)
			require.Positive(t, d)
			require.LessOrEqual(t, d, 24*time.Hour)
		}
	}
}
