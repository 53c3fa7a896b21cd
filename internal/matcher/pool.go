package matcher

// pool is the consumable multiset of paid exam keys for one patient-day.
// Duplicates are separate units. Removal keeps the remaining order so that
// first-seen tie-breaking stays stable across consumptions.
type pool struct {
	exams []string
}

func newPool(exams []string) *pool {
	p := &pool{exams: make([]string, len(exams))}
	copy(p.exams, exams)
	return p
}

func (p *pool) empty() bool {
	return len(p.exams) == 0
}

// best returns the position and score of the entry most similar to exam.
// Only a strictly higher score replaces the current best, so the first of
// several equal scores wins. The pool must not be empty.
func (p *pool) best(exam string) (idx int, score float64) {
	idx, score = -1, -1
	for i, paid := range p.exams {
		if s := TokenSortRatio(exam, paid); s > score {
			idx, score = i, s
		}
	}
	return idx, score
}

func (p *pool) remove(idx int) {
	p.exams = append(p.exams[:idx], p.exams[idx+1:]...)
}
