package pipeline

// RotationIndex picks index runID mod n, so consecutive runs walk the list
// round-robin without stored state. n <= 0 returns 0.
func RotationIndex(runID int64, n int) int {
	if n <= 0 {
		return 0
	}
	i := runID % int64(n)
	if i < 0 {
		i += int64(n)
	}
	return int(i)
}

// templateFor returns the template id and 1-based page for a run.
func templateFor(runID int64, templateIDs []string, pages int) (string, int) {
	if len(templateIDs) == 0 {
		return "", 1
	}
	id := templateIDs[RotationIndex(runID, len(templateIDs))]
	if pages < 1 {
		pages = 1
	}
	return id, RotationIndex(runID, pages) + 1
}
