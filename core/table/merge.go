package table

import (
	"fmt"
	"strings"
)

// MergeHow selects the relational join mode for Merge.
type MergeHow string

const (
	MergeInner MergeHow = "inner"
	MergeLeft  MergeHow = "left"
	MergeRight MergeHow = "right"
	MergeOuter MergeHow = "outer"
)

// Merge joins two tables on positional key pairs (leftKeys[i] matches
// rightKeys[i]). Key equality is kind-sensitive; callers that want integer
// keys to match their text rendering stringify the key columns first.
//
// Output schema: all left columns, then the right columns excluding key
// columns whose name equals the left key at the same position. When a
// non-key column name collides across sides, both survive with "_x" / "_y"
// suffixes. For rows that exist only on the right, shared key columns are
// populated from the right side.
func Merge(left, right *Table, leftKeys, rightKeys []string, how MergeHow) (*Table, error) {
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("merge requires matching key lists, got %d and %d", len(leftKeys), len(rightKeys))
	}
	for _, key := range leftKeys {
		if !left.HasColumn(key) {
			return nil, fmt.Errorf("left table has no key column %q", key)
		}
	}
	for _, key := range rightKeys {
		if !right.HasColumn(key) {
			return nil, fmt.Errorf("right table has no key column %q", key)
		}
	}
	switch how {
	case MergeInner, MergeLeft, MergeRight, MergeOuter:
	default:
		return nil, fmt.Errorf("unknown merge mode %q", how)
	}

	rightBuckets := make(map[string][]int, right.NumRows())
	rightOrder := make([]string, 0, right.NumRows())
	for row := 0; row < right.NumRows(); row++ {
		composite := compositeKey(right, rightKeys, row)
		if _, seen := rightBuckets[composite]; !seen {
			rightOrder = append(rightOrder, composite)
		}
		rightBuckets[composite] = append(rightBuckets[composite], row)
	}

	// Matched pairs in left-row order, then unmatched right rows (right and
	// outer modes) in right-row order. -1 marks a missing side.
	type pair struct{ leftRow, rightRow int }
	pairs := make([]pair, 0, left.NumRows())
	rightMatched := make(map[string]bool)

	for leftRow := 0; leftRow < left.NumRows(); leftRow++ {
		composite := compositeKey(left, leftKeys, leftRow)
		matches := rightBuckets[composite]
		if len(matches) == 0 {
			if how == MergeLeft || how == MergeOuter {
				pairs = append(pairs, pair{leftRow, -1})
			}
			continue
		}
		rightMatched[composite] = true
		for _, rightRow := range matches {
			pairs = append(pairs, pair{leftRow, rightRow})
		}
	}

	if how == MergeRight || how == MergeOuter {
		for _, composite := range rightOrder {
			if rightMatched[composite] {
				continue
			}
			for _, rightRow := range rightBuckets[composite] {
				pairs = append(pairs, pair{-1, rightRow})
			}
		}
	}

	sharedKey := make(map[string]int, len(leftKeys)) // left key name -> position
	droppedRightKey := make(map[string]bool, len(rightKeys))
	for i := range leftKeys {
		if leftKeys[i] == rightKeys[i] {
			sharedKey[leftKeys[i]] = i
			droppedRightKey[rightKeys[i]] = true
		}
	}

	leftNames := make(map[string]bool, left.NumColumns())
	for _, name := range left.ColumnNames() {
		leftNames[name] = true
	}

	columns := make([]Column, 0, left.NumColumns()+right.NumColumns())
	for _, source := range left.columns {
		name := source.Name
		if _, isSharedKey := sharedKey[name]; !isSharedKey && right.HasColumn(name) && !droppedRightKey[name] {
			name += "_x"
		}
		cells := make([]any, len(pairs))
		for i, p := range pairs {
			if p.leftRow >= 0 {
				cells[i] = source.Cell(p.leftRow)
			} else if keyPosition, isSharedKey := sharedKey[source.Name]; isSharedKey {
				cells[i] = right.Cell(p.rightRow, rightKeys[keyPosition])
			}
		}
		columns = append(columns, Column{Name: name, Kind: inferKind(cells), cells: cells})
	}

	for _, source := range right.columns {
		if droppedRightKey[source.Name] {
			continue
		}
		name := source.Name
		if leftNames[name] {
			name += "_y"
		}
		cells := make([]any, len(pairs))
		for i, p := range pairs {
			if p.rightRow >= 0 {
				cells[i] = source.Cell(p.rightRow)
			}
		}
		columns = append(columns, Column{Name: name, Kind: inferKind(cells), cells: cells})
	}

	return New(columns...)
}

func compositeKey(t *Table, keys []string, row int) string {
	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(keyString(t.Cell(row, key)))
		builder.WriteByte('\x1f')
	}
	return builder.String()
}
