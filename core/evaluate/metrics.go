package evaluate

import "strings"

// editDistance is the Levenshtein distance between two token sequences.
func editDistance[T comparable](ref, hyp []T) int {
	prev := make([]int, len(hyp)+1)
	cur := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ref); i++ {
		cur[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(hyp)]
}

// WordErrors returns the word edit distance and the reference word count.
func WordErrors(ref, hyp string) (errs, words int) {
	r := strings.Fields(strings.ToLower(ref))
	h := strings.Fields(strings.ToLower(hyp))
	return editDistance(r, h), len(r)
}

// CharErrors returns the character edit distance and the reference length.
func CharErrors(ref, hyp string) (errs, chars int) {
	r := []rune(strings.ToLower(ref))
	h := []rune(strings.ToLower(hyp))
	return editDistance(r, h), len(r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
