package report

import "sort"

// Aggregate concatenates per-item violation lists and sorts the result by
// (line, column, rule). Equal keys keep their emission order.
func Aggregate(lists ...[]Violation) []Violation {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]Violation, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	Sort(out)
	return out
}

// Sort orders violations in place by line, then column, then rule id.
func Sort(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Rule < b.Rule
	})
}

// FilterSeverity drops warnings unless includeWarnings is set.
func FilterSeverity(vs []Violation, includeWarnings bool) []Violation {
	if includeWarnings {
		return vs
	}
	out := make([]Violation, 0, len(vs))
	for _, v := range vs {
		if v.Severity >= SevError {
			out = append(out, v)
		}
	}
	return out
}

// HasErrors reports whether any violation has error severity.
func HasErrors(vs []Violation) bool {
	for i := range vs {
		if vs[i].Severity >= SevError {
			return true
		}
	}
	return false
}
