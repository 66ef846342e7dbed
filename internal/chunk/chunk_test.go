package chunk

import (
	"testing"

	"depthsync/pkg/types"
)

func pairSet(n int) map[types.Pair]int {
	m := make(map[types.Pair]int, n)
	for i := 0; i < n; i++ {
		m[types.NewPair(string(rune('a'+i)), "usdt")] = i
	}
	return m
}

func TestPairsSplitsIntoBoundedChunks(t *testing.T) {
	t.Parallel()
	m := pairSet(10)

	chunks := Pairs(m, 3)

	total := 0
	for _, c := range chunks {
		if len(c) > 3 {
			t.Fatalf("chunk size %d exceeds bound 3", len(c))
		}
		total += len(c)
	}
	if total != 10 {
		t.Fatalf("total entries across chunks = %d, want 10", total)
	}
}

func TestPairsEveryKeyAppearsExactlyOnce(t *testing.T) {
	t.Parallel()
	m := pairSet(7)

	chunks := Pairs(m, 2)

	seen := make(map[types.Pair]bool)
	for _, c := range chunks {
		for k := range c {
			if seen[k] {
				t.Fatalf("key %v appeared in more than one chunk", k)
			}
			seen[k] = true
		}
	}
	if len(seen) != 7 {
		t.Fatalf("saw %d distinct keys, want 7", len(seen))
	}
}

func TestPairsEmptyMapProducesNoChunks(t *testing.T) {
	t.Parallel()
	chunks := Pairs(map[types.Pair]int{}, 4)
	if len(chunks) != 0 {
		t.Fatalf("len(chunks) = %d, want 0", len(chunks))
	}
}

func TestPairsSizeLargerThanMapYieldsSingleChunk(t *testing.T) {
	t.Parallel()
	m := pairSet(3)
	chunks := Pairs(m, 100)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if len(chunks[0]) != 3 {
		t.Fatalf("len(chunks[0]) = %d, want 3", len(chunks[0]))
	}
}
