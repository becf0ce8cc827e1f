package models

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// BuildReport aggregates records per institution, per company and per
// graduation year. Buckets are ordered by count, then label.
func BuildReport(records []*VerifiedRecord, now time.Time) *Report {
	inst := newTally()
	comp := newTally()
	years := newTally()
	for _, r := range records {
		inst.add(r.InstitutionID.String(), r.InstitutionName)
		comp.add(r.CompanyID.String(), r.CompanyName)
		year := strconv.Itoa(r.GraduationYear)
		years.add(year, year)
	}
	return &Report{
		GeneratedAt:      now,
		Total:            len(records),
		ByInstitution:    inst.buckets(),
		ByCompany:        comp.buckets(),
		ByGraduationYear: years.buckets(),
	}
}

type tally struct {
	index map[string]int
	out   []Bucket
}

func newTally() *tally {
	return &tally{index: make(map[string]int)}
}

func (t *tally) add(key, label string) {
	if i, ok := t.index[key]; ok {
		t.out[i].Count++
		return
	}
	t.index[key] = len(t.out)
	t.out = append(t.out, Bucket{Key: key, Label: label, Count: 1})
}

func (t *tally) buckets() []Bucket {
	out := slices.Clone(t.out)
	if out == nil {
		out = []Bucket{}
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
