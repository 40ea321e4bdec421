package game

import (
	"math/rand"

	"github.com/anteneh-g/tambola-backend/models"
)

// ShufflePool returns an unbiased permutation of 1..90. It is fixed on the
// game at countdown start so the draw order is deterministic for the whole
// session: the next call is always the first pool element not yet called,
// which makes resume-after-crash trivial.
func ShufflePool() []int {
	nums := make([]int, models.MaxNumber)
	for i := range nums {
		nums[i] = i + 1
	}
	rand.Shuffle(len(nums), func(i, j int) { nums[i], nums[j] = nums[j], nums[i] })
	return nums
}

// NextNumber returns the first session number not already called. ok is
// false when the pool is exhausted, which ends the game. Pure function of
// stored state; the append happens in the caller's atomic update.
func NextNumber(g *models.Game) (n int, ok bool) {
	called := make(map[int]bool, len(g.CalledNumbers))
	for _, c := range g.CalledNumbers {
		called[c] = true
	}
	for _, v := range g.SessionNumbers {
		if !called[v] {
			return v, true
		}
	}
	return 0, false
}
