package domain

import (
	"math"
	"strconv"
)

// MaxPoints is the largest score the wire format carries.
const MaxPoints = math.MaxInt32

// Score is a nullable point total. The zero value is null: the round is
// not resolved for that participant yet.
type Score struct {
	points int
	valid  bool
}

func NullScore() Score {
	return Score{}
}

func Points(n int) Score {
	return Score{points: n, valid: true}
}

func (s Score) IsNull() bool {
	return !s.valid
}

// Int returns the points and whether the score is set.
func (s Score) Int() (int, bool) {
	return s.points, s.valid
}

func (s Score) String() string {
	if !s.valid {
		return "null"
	}
	return strconv.Itoa(s.points)
}

func (s Score) MarshalJSON() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = NullScore()
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*s = Points(n)
	return nil
}
