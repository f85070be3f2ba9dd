package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constantRand always draws the same values, which starves the decoy generator.
type constantRand struct{}

func (constantRand) Intn(n int) int   { return 0 }
func (constantRand) Float64() float64 { return 0.5 }

func TestParseChallengeDate(t *testing.T) {
	for _, raw := range []string{"1980-05-20", "1980-05-20T00:00:00.000Z", "1980-05-20T23:59:00-03:00", " 1980-05-20 10:00:00"} {
		d, err := ParseChallengeDate(raw, time.UTC)
		require.NoError(t, err, raw)
		assert.Equal(t, "20/05/1980", FormatChallengeDate(d), raw)
	}

	_, err := ParseChallengeDate("", time.UTC)
	assert.Error(t, err)
	_, err = ParseChallengeDate("20/05/1980", time.UTC)
	assert.Error(t, err)
}

func TestChallengeOptionsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	bases := []time.Time{
		time.Date(1980, 5, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1931, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	for round := 0; round < 300; round++ {
		base := bases[round%len(bases)]
		correct, options, err := ChallengeOptions(base, now, rng)
		require.NoError(t, err)
		assert.Equal(t, FormatChallengeDate(base), correct)
		require.Len(t, options, 4)

		seen := map[string]bool{}
		hits := 0
		for _, opt := range options {
			assert.False(t, seen[opt], "duplicate option %s", opt)
			seen[opt] = true
			if opt == correct {
				hits++
				continue
			}
			parsed, err := time.Parse(challengeDateLayout, opt)
			require.NoError(t, err)
			assert.False(t, parsed.After(now), "decoy %s lies in the future", opt)
		}
		assert.Equal(t, 1, hits)
	}
}

func TestChallengeOptionsGivesUpWhenDecoysRepeat(t *testing.T) {
	base := time.Date(1980, 5, 20, 0, 0, 0, 0, time.UTC)
	_, _, err := ChallengeOptions(base, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), constantRand{})
	assert.Error(t, err)
}

func TestPerturbDateRollsOverLikeACalendar(t *testing.T) {
	// resampled month February with day 31 lands in March
	base := time.Date(1990, 1, 31, 0, 0, 0, 0, time.UTC)
	got := perturbDate(base, &scriptedRand{floats: []float64{0.5}, ints: []int{1, 27}})
	assert.Equal(t, "28/03/1990", FormatChallengeDate(got))
}

func TestShuffleIsAPermutation(t *testing.T) {
	values := []string{"a", "b", "c", "d"}
	shuffle(values, rand.New(rand.NewSource(3)))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, values)
}

// scriptedRand replays fixed draws, then returns zero.
type scriptedRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (s *scriptedRand) Float64() float64 {
	if s.fi >= len(s.floats) {
		return 0
	}
	s.fi++
	return s.floats[s.fi-1]
}

func (s *scriptedRand) Intn(n int) int {
	if s.ii >= len(s.ints) {
		return 0
	}
	s.ii++
	return s.ints[s.ii-1] % n
}
