package domain

import "time"

// Grade is the letter form of a total score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// Score is a derived health score, every component is in [0,100].
type Score struct {
	Timestamp time.Time `json:"timestamp"`
	Grade     Grade     `json:"grade"`
	Total     int       `json:"total"`
	FPS       int       `json:"fps"`
	Memory    int       `json:"memory"`
	Rebuilds  int       `json:"rebuilds"`
	Jank      int       `json:"jank"`
	Warnings  int       `json:"warnings"`
	SetState  int       `json:"setState"`
	Depth     int       `json:"depth"`
}
