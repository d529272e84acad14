package game

import "bytes"

// Classify compares guess against target and returns one LetterResult per
// position. Both must be normalized words of the same length.
//
// Pass 1 marks exact matches and consumes those target letters.
// Pass 2 walks the remaining positions left to right: a letter is present
// if an unconsumed occurrence is left in the target (which it then consumes),
// absent otherwise. Exact matches therefore always win over present-elsewhere,
// and a letter is never flagged more times than it occurs in the target.
func Classify(guess, target string) Result {
	n := len(guess)
	res := make(Result, n)
	remaining := []byte(target)

	for i := 0; i < n; i++ {
		res[i].Letter = guess[i : i+1]
		if i < len(remaining) && guess[i] == remaining[i] {
			res[i].Status = MarkCorrect
			remaining[i] = 0
		}
	}

	for i := 0; i < n; i++ {
		if res[i].Status == MarkCorrect {
			continue
		}
		if j := bytes.IndexByte(remaining, guess[i]); j >= 0 {
			res[i].Status = MarkPresent
			remaining[j] = 0
		} else {
			res[i].Status = MarkAbsent
		}
	}
	return res
}
