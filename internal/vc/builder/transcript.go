package builder

import (
	"sort"
	"strconv"
	"strings"

	"unicred/internal/directory"
	"unicred/internal/vc/models"
)

const maxSemesters = 8

// aggregateSemesters groups marks into per-semester transcript blocks,
// semesters 1 through 8 only, in ascending order. Each block carries its
// graded courses, total credits, and credit-weighted SGPA.
func aggregateSemesters(marks []directory.Mark, idx map[string]directory.Course) []models.SemesterRecord {
	bySem := make(map[int][]directory.Mark)
	for _, m := range marks {
		sem := m.Semester
		if sem == 0 {
			// Older marks rows omit the semester; fall back to the catalog.
			if c, ok := idx[m.CourseID]; ok {
				sem = c.Semester
			}
		}
		if sem < 1 || sem > maxSemesters {
			continue
		}
		bySem[sem] = append(bySem[sem], m)
	}

	nums := make([]int, 0, len(bySem))
	for n := range bySem {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	records := make([]models.SemesterRecord, 0, len(nums))
	for _, n := range nums {
		lines := courseLines(bySem[n], idx)
		sgpa, credits := weightedGPA(lines)
		records = append(records, models.SemesterRecord{
			Semester: n,
			Courses:  lines,
			SGPA:     sgpa,
			Credits:  credits,
		})
	}
	return records
}

// cumulativeGPA is the credit-weighted average across every course in every
// semester, rounded to two decimals.
func cumulativeGPA(semesters []models.SemesterRecord) (cgpa float64, totalCredits int) {
	var weighted float64
	for _, s := range semesters {
		for _, l := range s.Courses {
			totalCredits += l.Credits
			weighted += float64(l.Credits) * l.GPA
		}
	}
	if totalCredits == 0 {
		return 0, 0
	}
	return round2(weighted / float64(totalCredits)), totalCredits
}

// ResultClass maps a CGPA to its classification. Lower bounds are inclusive.
func ResultClass(cgpa float64) string {
	switch {
	case cgpa >= 7.75:
		return "First Class with Distinction"
	case cgpa >= 6.75:
		return "First Class"
	case cgpa >= 5.50:
		return "Second Class"
	default:
		return "Pass"
	}
}

var digitWords = map[byte]string{
	'0': "Zero", '1': "One", '2': "Two", '3': "Three", '4': "Four",
	'5': "Five", '6': "Six", '7': "Seven", '8': "Eight", '9': "Nine",
	'.': "Point",
}

// NumberInWords spells a grade-point average digit by digit at two decimal
// places, e.g. 8.5 -> "Eight Point Five Zero".
func NumberInWords(v float64) string {
	formatted := strconv.FormatFloat(v, 'f', 2, 64)
	words := make([]string, 0, len(formatted))
	for i := 0; i < len(formatted); i++ {
		if w, ok := digitWords[formatted[i]]; ok {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// yearOfCompletion classifies a transcript as Completed or Pursuing.
//
// graduationYear is batchYear + 4. Once the graduation year has arrived
// (graduationYear <= currentYear, boundary inclusive) the transcript is
// always Pursuing. Before that, Completed requires marks recorded for all
// eight semesters.
func yearOfCompletion(batchYear, currentYear, semestersWithData int) string {
	if batchYear+4 <= currentYear {
		return "Pursuing"
	}
	if semestersWithData >= maxSemesters {
		return "Completed"
	}
	return "Pursuing"
}
