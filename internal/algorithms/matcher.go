package algorithms

import (
	"math"
	"strings"
)

// MatchScore computes the skill match percentage between a referral's
// required skills and a candidate's skills.
//
// A required skill counts as matched when it contains a candidate skill or a
// candidate skill contains it, case-insensitively ("go" matches "golang").
// Each required skill counts at most once. The result is
// round(100 * matched / len(required)); no required skills means 0.
func MatchScore(requiredSkills, candidateSkills []string) int {
	if len(requiredSkills) == 0 {
		return 0
	}

	candidates := make([]string, 0, len(candidateSkills))
	for _, s := range candidateSkills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			candidates = append(candidates, s)
		}
	}

	matched := 0
	for _, req := range requiredSkills {
		req = strings.ToLower(strings.TrimSpace(req))
		if req == "" {
			continue
		}
		for _, cand := range candidates {
			if strings.Contains(req, cand) || strings.Contains(cand, req) {
				matched++
				break
			}
		}
	}

	return int(math.Round(100 * float64(matched) / float64(len(requiredSkills))))
}
