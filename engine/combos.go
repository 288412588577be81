package engine

import (
	"errors"
	"sort"
)

// zipCombos pairs the i-th element of every mapped parameter together,
// requiring equal lengths.
func zipCombos(mapped map[string][]any) ([]map[string]any, error) {
	names := sortedKeys(mapped)
	if len(names) == 0 {
		return nil, nil
	}
	n := len(mapped[names[0]])
	for _, name := range names {
		if len(mapped[name]) != n {
			return nil, errors.New("map: zip mode requires all mapped parameters to have equal length")
		}
	}
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := map[string]any{}
		for _, name := range names {
			row[name] = mapped[name][i]
		}
		out[i] = row
	}
	return out, nil
}

// productCombos iterates the cartesian product of every mapped parameter's
// values.
func productCombos(mapped map[string][]any) []map[string]any {
	names := sortedKeys(mapped)
	if len(names) == 0 {
		return nil
	}
	out := []map[string]any{{}}
	for _, name := range names {
		var next []map[string]any
		for _, row := range out {
			for _, v := range mapped[name] {
				nr := make(map[string]any, len(row)+1)
				for k, rv := range row {
					nr[k] = rv
				}
				nr[name] = v
				next = append(next, nr)
			}
		}
		out = next
	}
	return out
}

func sortedKeys(m map[string][]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
