// Copyright 2024-2026 The Tracemux Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arith128 provides 128-bit intermediate integer arithmetic for the
// clock cycle and nanosecond conversions, which must not lose precision for
// any representable 64-bit operand.
package arith128

import "math/bits"

// MulDiv64 computes a * b / div using a 128-bit intermediate product.
//
// ok is false if the quotient does not fit in a uint64. div must not be
// zero.
func MulDiv64(a, b, div uint64) (q uint64, ok bool) {
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		// bits.Div64 panics on quotient overflow.
		return 0, false
	}
	q, _ = bits.Div64(hi, lo, div)
	return q, true
}

// AddI64 computes a + b, reporting whether the sum fits in an int64.
func AddI64(a, b int64) (sum int64, ok bool) {
	sum = a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// SubI64 computes a - b, reporting whether the difference fits in an int64.
func SubI64(a, b int64) (diff int64, ok bool) {
	diff = a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

// MulI64 computes a * b, reporting whether the product fits in an int64.
func MulI64(a, b int64) (prod int64, ok bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if b == -1 && a == -1<<63 {
		// MinInt64 / -1 wraps back to MinInt64, which the check below misses.
		return 0, false
	}
	prod = a * b
	if prod/b != a {
		return 0, false
	}
	return prod, true
}

// U64ToI64 converts v to int64, reporting whether it fits.
func U64ToI64(v uint64) (int64, bool) {
	if v > 1<<63-1 {
		return 0, false
	}
	return int64(v), true
}
