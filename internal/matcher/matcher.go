// Package matcher pairs performed exams with paid invoice lines and reports
// the performed exams left without payment.
//
// Records are grouped by exact (patient, date) identity; only the exam text
// is compared fuzzily. Each paid line is consumed by at most one performed
// exam.
package matcher

import (
	"math"

	"medrecon/internal/domain"
	"medrecon/internal/normalize"
)

// DefaultThreshold is the similarity cutoff used when none is configured.
const DefaultThreshold = 75.0

// Stats counts what happened to the rows of one reconciliation.
type Stats struct {
	Performed         int `json:"performed"`
	Paid              int `json:"paid"`
	ExcludedPerformed int `json:"excluded_performed"`
	ExcludedPaid      int `json:"excluded_paid"`
	Groups            int `json:"groups"`
	Matched           int `json:"matched"`
	Unpaid            int `json:"unpaid"`
}

// Result holds the unpaid records and the run statistics. Unpaid is never nil.
type Result struct {
	Unpaid []domain.Record
	Stats  Stats
}

// groupKey is the exact patient-day identity.
type groupKey struct {
	patient string
	date    string
}

type performedRow struct {
	record domain.Record
	exam   string
}

// ValidateThreshold reports whether threshold lies in [0, 100].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 100 {
		return domain.ErrInvalidThreshold
	}
	return nil
}

// Reconcile returns the performed records that no paid record accounts for.
//
// Rows whose patient, exam or date key cannot be derived are excluded from
// both sides and counted in Stats. Within a patient-day group performed rows
// are visited in input order; each takes the most similar remaining paid exam
// if its score is at least threshold, consuming it. Groups come out in order
// of first appearance.
func Reconcile(performed, paid []domain.Record, threshold float64) (*Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	stats := Stats{Performed: len(performed), Paid: len(paid)}

	paidByKey := make(map[groupKey][]string)
	for i := range paid {
		k, exam, ok := deriveKeys(paid[i])
		if !ok {
			stats.ExcludedPaid++
			continue
		}
		paidByKey[k] = append(paidByKey[k], exam)
	}

	var order []groupKey
	groups := make(map[groupKey][]performedRow)
	for i := range performed {
		k, exam, ok := deriveKeys(performed[i])
		if !ok {
			stats.ExcludedPerformed++
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], performedRow{record: performed[i], exam: exam})
	}
	stats.Groups = len(order)

	unpaid := make([]domain.Record, 0)
	for _, k := range order {
		rows := groups[k]
		candidates, ok := paidByKey[k]
		if !ok {
			for _, row := range rows {
				unpaid = append(unpaid, row.record)
			}
			continue
		}

		p := newPool(candidates)
		for _, row := range rows {
			if p.empty() {
				unpaid = append(unpaid, row.record)
				continue
			}
			idx, score := p.best(row.exam)
			if score >= threshold {
				p.remove(idx)
				stats.Matched++
				continue
			}
			unpaid = append(unpaid, row.record)
		}
	}

	stats.Unpaid = len(unpaid)
	return &Result{Unpaid: unpaid, Stats: stats}, nil
}

// deriveKeys computes the comparison keys of r. ok is false when any key is
// empty or the date does not parse.
func deriveKeys(r domain.Record) (k groupKey, exam string, ok bool) {
	patient := normalize.Text(r.Patient)
	exam = normalize.Text(r.Exam)
	date, parsed := normalize.ParseDate(r.Date)
	if patient == "" || exam == "" || !parsed {
		return groupKey{}, "", false
	}
	return groupKey{patient: patient, date: normalize.FormatDate(date)}, exam, true
}
