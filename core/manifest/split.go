package manifest

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// DefaultSeed makes splits reproducible unless the caller opts out.
const DefaultSeed int64 = 42

// UnseededSeed returns a time-derived seed. Splits made with it cannot be reproduced.
func UnseededSeed() int64 {
	return time.Now().UnixNano()
}

// Split shuffles a copy of entries with seed and cuts it at floor(len × trainRatio).
// The input slice is not modified.
func Split(entries []Entry, trainRatio float64, seed int64) (train, validation []Entry, err error) {
	if math.IsNaN(trainRatio) || trainRatio < 0 || trainRatio > 1 {
		return nil, nil, fmt.Errorf("train ratio %v outside [0, 1]", trainRatio)
	}

	shuffled := make([]Entry, len(entries))
	copy(shuffled, entries)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(math.Floor(float64(len(shuffled)) * trainRatio))
	return shuffled[:cut:cut], shuffled[cut:], nil
}

// SplitFile reads src, splits it and rewrites trainPath and valPath from scratch.
func SplitFile(src, trainPath, valPath string, trainRatio float64, seed int64) (nTrain, nVal int, err error) {
	entries, err := ReadEntries(src)
	if err != nil {
		return 0, 0, err
	}
	train, val, err := Split(entries, trainRatio, seed)
	if err != nil {
		return 0, 0, err
	}

	for _, out := range []struct {
		path    string
		entries []Entry
	}{{trainPath, train}, {valPath, val}} {
		if err := Truncate(out.path); err != nil {
			return 0, 0, err
		}
		if err := WriteEntries(out.path, out.entries); err != nil {
			return 0, 0, err
		}
	}
	return len(train), len(val), nil
}
