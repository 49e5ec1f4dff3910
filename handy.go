/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import "sort"

// isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

// Same as the previous, but with strings.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of an int-keyed map, in increasing order.
func SortedKeys[V any](m map[int]V) []int {
	ret := make([]int, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}
