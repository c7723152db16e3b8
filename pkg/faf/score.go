package faf

// Report is the outcome of checking a description for AI readiness.
type Report struct {
	// Valid is true when no errors were found. Warnings do not affect it.
	Valid    bool
	Errors   []string
	Warnings []string
	// Score is a weighted completeness score from 0 to 100.
	Score int
}

// Validate checks a description for completeness. Missing required fields
// are errors; thin recommended sections are warnings. The score rewards
// each populated area of the description, capped at 100.
func Validate(d *ProjectDescription) Report {
	var r Report
	if d == nil {
		r.Errors = append(r.Errors, "missing description")
		return r
	}

	if d.name == "" {
		r.Errors = append(r.Errors, "missing project name")
	}
	if d.version == "" {
		r.Warnings = append(r.Warnings, "missing project version")
	}
	if len(d.stack) == 0 {
		r.Warnings = append(r.Warnings, "missing stack section")
	}
	if len(d.keyFiles) == 0 {
		r.Warnings = append(r.Warnings, "no key files listed")
	}
	if d.architecture == "" && d.commands == "" {
		r.Warnings = append(r.Warnings, "no architecture or command notes")
	}
	if d.context == "" {
		r.Warnings = append(r.Warnings, "missing context section")
	}

	r.Valid = len(r.Errors) == 0
	r.Score = completenessScore(d)
	return r
}

func completenessScore(d *ProjectDescription) int {
	score := 0

	// Identity (30 points)
	if d.name != "" {
		score += 10
	}
	if d.version != "" {
		score += 10
	}
	if d.score > 0 {
		score += 10
	}

	// Stack (20 points)
	if len(d.stack) > 0 {
		score += 15
	}
	if len(d.stack) >= 3 {
		score += 5
	}

	// Key files (15 points)
	if len(d.keyFiles) > 0 {
		score += 10
	}
	if len(d.keyFiles) >= 3 {
		score += 5
	}

	// Operational notes (20 points)
	if d.architecture != "" {
		score += 10
	}
	if d.commands != "" {
		score += 10
	}

	// Context and provenance (15 points)
	if d.context != "" {
		score += 10
	}
	if d.sync != nil {
		score += 5
	}

	if score > MaxScore {
		score = MaxScore
	}
	return score
}
