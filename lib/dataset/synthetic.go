// Copyright 2026 The IAXBench Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"math/rand/v2"
)

// syntheticWords is the token pool for generated text. The generator
// draws from it with a skewed distribution so the output compresses
// like natural text rather than noise.
var syntheticWords = []string{
	"the", "of", "and", "to", "in", "that", "is", "was", "for", "it",
	"with", "as", "his", "on", "be", "at", "by", "had", "not", "are",
	"but", "from", "or", "have", "an", "they", "which", "one", "you",
	"were", "her", "all", "she", "there", "would", "their", "we",
	"him", "been", "has", "when", "who", "will", "more", "no", "if",
	"out", "so", "said", "what", "up", "its", "about", "into", "than",
	"them", "can", "only", "other", "new", "some", "could", "time",
	"these", "two", "may", "then", "do", "first", "any", "my", "now",
	"such", "like", "our", "over", "man", "me", "even", "most", "made",
	"after", "also", "did", "many", "before", "must", "through",
	"years", "where", "much", "your", "way", "well", "down", "should",
	"because", "each", "just", "those", "people", "how", "too",
}

// Synthetic builds a deterministic single-entry corpus of compressible
// text. The same size and seed always produce the same bytes.
func Synthetic(size int, seed uint64) *Corpus {
	return &Corpus{
		Source:  "synthetic",
		Entries: []Entry{newEntry("synthetic", syntheticData(size, seed))},
	}
}

func syntheticData(size int, seed uint64) []byte {
	if size <= 0 {
		return []byte{}
	}
	random := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	buffer := make([]byte, 0, size+16)
	sinceBreak := 0
	for len(buffer) < size {
		// Squaring the draw skews toward the front of the pool the way
		// word frequency skews in natural text.
		pick := random.Float64()
		word := syntheticWords[int(pick*pick*float64(len(syntheticWords)))]
		buffer = append(buffer, word...)
		sinceBreak++
		if sinceBreak >= 8 && random.IntN(4) == 0 {
			buffer = append(buffer, '.', '\n')
			sinceBreak = 0
		} else {
			buffer = append(buffer, ' ')
		}
	}
	return buffer[:size]
}
