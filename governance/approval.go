// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"math/bits"

	"github.com/blinklabs-io/agora/state"
)

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrArithmeticOverflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrArithmeticOverflow
	}
	return lo, nil
}

// IsApproved reports whether weight passes threshold against the rule's max
// vote weight. The deny weight must be strictly below weight and
// weight*denominator must strictly exceed numerator*maxVoteWeight
func IsApproved(threshold state.Threshold, weight, denyWeight, maxVoteWeight uint64) (bool, error) {
	if threshold.Denominator == 0 {
		return false, ErrInvalidThreshold
	}
	if denyWeight >= weight {
		return false, nil
	}
	lhs, err := checkedMul(weight, threshold.Denominator)
	if err != nil {
		return false, err
	}
	rhs, err := checkedMul(threshold.Numerator, maxVoteWeight)
	if err != nil {
		return false, err
	}
	return lhs > rhs, nil
}

// ThresholdPercentage rounds a threshold up to a whole percentage
func ThresholdPercentage(threshold state.Threshold) (uint8, error) {
	if threshold.Denominator == 0 {
		return 0, ErrInvalidThreshold
	}
	scaled, err := checkedMul(threshold.Numerator, 100)
	if err != nil {
		return 0, err
	}
	pct := scaled / threshold.Denominator
	if scaled%threshold.Denominator != 0 {
		pct++
	}
	if pct > 100 {
		pct = 100
	}
	return uint8(pct), nil // #nosec G115
}

func validateThreshold(threshold state.Threshold) error {
	if threshold.Denominator == 0 || threshold.Numerator > threshold.Denominator {
		return ErrInvalidThreshold
	}
	return nil
}
