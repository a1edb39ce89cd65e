package scoring

// GradeOf maps a rounded percentage to its letter band. Lower bounds are
// inclusive; these boundaries are load-bearing for historical grading.
func GradeOf(percentage int) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
