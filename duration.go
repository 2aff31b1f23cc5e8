// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type accepted by the Duration
// constructors.
type Number interface {
	constraints.Integer | constraints.Float
}

// Duration is a signed nanosecond count. It doubles as a monotonic timestamp,
// when produced by a Clock.
//
// The As* conversions truncate toward zero, so e.g. sub-millisecond
// remainders are dropped by AsMilliseconds.
type Duration int64

const (
	nanosPerMicro  = int64(time.Microsecond)
	nanosPerMilli  = int64(time.Millisecond)
	nanosPerSecond = int64(time.Second)
)

// Zero returns the zero Duration.
func Zero() Duration { return 0 }

// Nanoseconds returns a Duration of v nanoseconds, rounded to the nearest
// nanosecond, if v is a float.
func Nanoseconds[T Number](v T) Duration { return scale(v, 1) }

// Microseconds returns a Duration of v microseconds.
func Microseconds[T Number](v T) Duration { return scale(v, nanosPerMicro) }

// Milliseconds returns a Duration of v milliseconds.
func Milliseconds[T Number](v T) Duration { return scale(v, nanosPerMilli) }

// Seconds returns a Duration of v seconds.
func Seconds[T Number](v T) Duration { return scale(v, nanosPerSecond) }

// FromStd converts a [time.Duration].
func FromStd(d time.Duration) Duration { return Duration(d) }

// scale returns v*unit nanoseconds, saturating at the bounds of Duration.
// NaN converts to zero.
func scale[T Number](v T, unit int64) Duration {
	// T(1)/T(2) is only non-zero for floating point types
	if T(1)/T(2) != 0 {
		f := math.Round(float64(v) * float64(unit))
		switch {
		case math.IsNaN(f):
			return 0
		case f >= math.MaxInt64:
			return math.MaxInt64
		case f <= math.MinInt64:
			return math.MinInt64
		}
		return Duration(f)
	}
	if v < 0 {
		if n := int64(v); n >= math.MinInt64/unit {
			return Duration(n * unit)
		}
		return math.MinInt64
	}
	if uint64(v) > uint64(math.MaxInt64/unit) {
		return math.MaxInt64
	}
	return Duration(int64(v) * unit)
}

// AsNanoseconds returns d as an integer nanosecond count.
func (d Duration) AsNanoseconds() int64 { return int64(d) }

// AsMicroseconds returns d as an integer microsecond count.
func (d Duration) AsMicroseconds() int64 { return int64(d) / nanosPerMicro }

// AsMilliseconds returns d as an integer millisecond count.
func (d Duration) AsMilliseconds() int64 { return int64(d) / nanosPerMilli }

// AsSeconds returns d as an integer second count.
func (d Duration) AsSeconds() int64 { return int64(d) / nanosPerSecond }

// Std converts d to a [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Add returns d+o.
func (d Duration) Add(o Duration) Duration { return d + o }

// Sub returns d-o.
func (d Duration) Sub(o Duration) Duration { return d - o }

// String formats d like [time.Duration.String].
func (d Duration) String() string { return time.Duration(d).String() }
