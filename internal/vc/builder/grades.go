package builder

import (
	"math"
	"sort"
	"strings"

	"unicred/internal/directory"
	"unicred/internal/vc/models"
)

// GradePoint maps a letter grade to its grade point. Used only when the
// academic system did not record an explicit GPA for the mark. Unrecognized
// grades count as 0, same as a fail.
func GradePoint(grade string) float64 {
	switch grade {
	case "S", "O":
		return 10
	case "A+", "A":
		return 9
	case "B+", "B":
		return 8
	case "C":
		return 7
	case "P":
		return 6
	case "F", "AF":
		return 0
	default:
		return 0
	}
}

// round2 rounds to two decimal places, matching how SGPA/CGPA are reported.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// courseIndex builds a course_id lookup over the catalog.
func courseIndex(courses []directory.Course) map[string]directory.Course {
	idx := make(map[string]directory.Course, len(courses))
	for _, c := range courses {
		idx[c.CourseID] = c
	}
	return idx
}

// courseLines joins marks against the course catalog, producing the graded
// course rows carried in marks cards and transcript semesters. Marks whose
// course is absent from the catalog are dropped; without the catalog row
// there is no course name or credit weight to report.
func courseLines(marks []directory.Mark, idx map[string]directory.Course) []models.CourseLine {
	lines := make([]models.CourseLine, 0, len(marks))
	for _, m := range marks {
		c, ok := idx[m.CourseID]
		if !ok {
			continue
		}
		grade := strings.ToUpper(strings.TrimSpace(m.Grade))
		gpa := GradePoint(grade)
		if m.GPA != nil {
			gpa = *m.GPA
		}
		lines = append(lines, models.CourseLine{
			CourseCode: c.CourseCode,
			CourseName: c.CourseName,
			Credits:    c.Credits,
			Grade:      grade,
			GPA:        gpa,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].CourseCode < lines[j].CourseCode })
	return lines
}

// weightedGPA returns the credit-weighted grade point average of lines,
// rounded to two decimals, together with the total credits. Zero credits
// yields a zero average rather than a division by zero.
func weightedGPA(lines []models.CourseLine) (gpa float64, credits int) {
	var weighted float64
	for _, l := range lines {
		credits += l.Credits
		weighted += float64(l.Credits) * l.GPA
	}
	if credits == 0 {
		return 0, 0
	}
	return round2(weighted / float64(credits)), credits
}
