package models

import "math"

// RoundRating converts an average score into the integer rating exposed by the API.
// Halves round away from zero; a nil average (no reviews) stays nil.
func RoundRating(avg *float64) *int {
	if avg == nil {
		return nil
	}
	r := int(math.Round(*avg))
	return &r
}
