package search

import (
	"math"
)

// maxBits is the longest pattern chunk matched in one bitap pass
const maxBits = 32

// matchOptions tune one bitap comparison
type matchOptions struct {
	threshold          float64
	distance           int
	minMatchCharLength int
}

type patternChunk struct {
	runes      []rune
	alphabet   map[rune]uint64
	startIndex int
}

// pattern is a folded query prepared for bitap matching
type pattern struct {
	text   string
	chunks []patternChunk
}

func newPattern(text string) *pattern {
	p := &pattern{text: text}
	runes := []rune(text)
	n := len(runes)

	add := func(chunk []rune, start int) {
		p.chunks = append(p.chunks, patternChunk{
			runes:      chunk,
			alphabet:   alphabetFor(chunk),
			startIndex: start,
		})
	}

	if n <= maxBits {
		add(runes, 0)
		return p
	}

	remainder := n % maxBits
	end := n - remainder
	for i := 0; i < end; i += maxBits {
		add(runes[i:i+maxBits], i)
	}
	if remainder > 0 {
		start := n - maxBits
		add(runes[start:], start)
	}
	return p
}

func alphabetFor(chunk []rune) map[rune]uint64 {
	alphabet := make(map[rune]uint64, len(chunk))
	for i, r := range chunk {
		alphabet[r] |= 1 << uint(len(chunk)-i-1)
	}
	return alphabet
}

// match scores text against the pattern. Scores run from 0 (identical)
// to 1; ok is false when no chunk matched within the threshold.
func (p *pattern) match(text string, opts matchOptions) (ok bool, score float64) {
	if text == p.text {
		return true, 0
	}

	runes := []rune(text)
	total := 0.0
	for _, c := range p.chunks {
		chunkOK, chunkScore := bitap(runes, c, opts)
		if chunkOK {
			ok = true
		}
		total += chunkScore
	}

	if !ok {
		return false, 1
	}
	return true, total / float64(len(p.chunks))
}

// bitap runs the approximate matcher for one pattern chunk, widening the
// allowed error count until the best possible score exceeds the threshold
func bitap(text []rune, c patternChunk, opts matchOptions) (bool, float64) {
	patternLen := len(c.runes)
	textLen := len(text)
	expected := max(0, min(c.startIndex, textLen))
	threshold := opts.threshold
	bestLocation := expected

	computeMatches := opts.minMatchCharLength > 1
	var matchMask []bool
	setMask := func(i int, v bool) {
		for len(matchMask) <= i {
			matchMask = append(matchMask, false)
		}
		matchMask[i] = v
	}

	// Exact occurrences tighten the threshold before the fuzzy pass
	for {
		index := indexFrom(text, c.runes, bestLocation)
		if index < 0 {
			break
		}
		score := computeScore(patternLen, 0, index, expected, opts.distance)
		threshold = math.Min(score, threshold)
		bestLocation = index + patternLen
		if computeMatches {
			for k := 0; k < patternLen; k++ {
				setMask(index+k, true)
			}
		}
	}

	bestLocation = -1
	var lastBitArr []uint64
	finalScore := 1.0
	binMax := patternLen + textLen
	mask := uint64(1) << uint(patternLen-1)

	for i := 0; i < patternLen; i++ {
		// Find how far from the expected location a match with i errors can score under the threshold
		binMin, binMid := 0, binMax
		for binMin < binMid {
			score := computeScore(patternLen, i, expected+binMid, expected, opts.distance)
			if score <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, expected-binMid+1)
		finish := min(expected+binMid, textLen) + patternLen

		bitArr := make([]uint64, finish+2)
		bitArr[finish+1] = (uint64(1) << uint(i)) - 1

		for j := finish; j >= start; j-- {
			current := j - 1
			var charMatch uint64
			if current < textLen {
				charMatch = c.alphabet[text[current]]
			}
			if computeMatches {
				setMask(current, charMatch != 0)
			}

			bitArr[j] = ((bitArr[j+1] << 1) | 1) & charMatch
			if i > 0 {
				bitArr[j] |= ((at(lastBitArr, j+1)|at(lastBitArr, j))<<1 | 1) | at(lastBitArr, j+1)
			}

			if bitArr[j]&mask != 0 {
				finalScore = computeScore(patternLen, i, current, expected, opts.distance)
				if finalScore <= threshold {
					threshold = finalScore
					bestLocation = current
					if bestLocation <= expected {
						break
					}
					start = max(1, 2*expected-bestLocation)
				}
			}
		}

		// No match with one more error can beat the current threshold
		if computeScore(patternLen, i+1, expected, expected, opts.distance) > threshold {
			break
		}
		lastBitArr = bitArr
	}

	ok := bestLocation >= 0
	if computeMatches && !hasRun(matchMask, opts.minMatchCharLength) {
		ok = false
	}
	return ok, math.Max(0.001, finalScore)
}

// computeScore weighs the error count against distance from the expected location
func computeScore(patternLen, errors, current, expected, distance int) float64 {
	accuracy := float64(errors) / float64(patternLen)
	proximity := current - expected
	if proximity < 0 {
		proximity = -proximity
	}
	if distance == 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(distance)
}

func indexFrom(text, sub []rune, from int) int {
	if from > len(text) {
		return -1
	}
	for i := from; i+len(sub) <= len(text); i++ {
		found := true
		for k := range sub {
			if text[i+k] != sub[k] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

func at(arr []uint64, i int) uint64 {
	if i < 0 || i >= len(arr) {
		return 0
	}
	return arr[i]
}

// hasRun reports whether mask holds at least n consecutive matched characters
func hasRun(mask []bool, n int) bool {
	run := 0
	for _, m := range mask {
		if !m {
			run = 0
			continue
		}
		run++
		if run >= n {
			return true
		}
	}
	return false
}
