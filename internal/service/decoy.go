package service

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	challengeOptionCount = 4
	maxDecoyAttempts     = 500
	challengeDateLayout  = "02/01/2006"
)

// randomSource is the subset of *rand.Rand the challenge generator draws from.
type randomSource interface {
	Intn(n int) int
	Float64() float64
}

// lockedRand makes a *rand.Rand safe for concurrent handlers.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand() *lockedRand {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}
	return &lockedRand{rng: rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

// ParseChallengeDate reads the calendar date of a backend date value, ignoring any time part.
func ParseChallengeDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "T "); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	if loc == nil {
		loc = time.Local
	}
	y, m, d := parsed.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

// FormatChallengeDate renders a date as DD/MM/YYYY.
func FormatChallengeDate(t time.Time) string {
	return t.Format(challengeDateLayout)
}

// ChallengeOptions returns the formatted correct answer and four shuffled, pairwise distinct
// options containing it. Decoys never fall after now.
func ChallengeOptions(base, now time.Time, rng randomSource) (string, []string, error) {
	correct := FormatChallengeDate(base)
	options := []string{correct}
	seen := map[string]struct{}{correct: {}}

	for attempt := 0; len(options) < challengeOptionCount; attempt++ {
		if attempt >= maxDecoyAttempts {
			return "", nil, fmt.Errorf("could not build %d distinct decoys after %d attempts", challengeOptionCount-1, maxDecoyAttempts)
		}
		decoy := perturbDate(base, rng)
		for decoy.After(now) {
			decoy = decoy.AddDate(-20, 0, 0)
		}
		formatted := FormatChallengeDate(decoy)
		if _, dup := seen[formatted]; dup {
			continue
		}
		seen[formatted] = struct{}{}
		options = append(options, formatted)
	}

	shuffle(options, rng)
	return correct, options, nil
}

// perturbDate moves the base date along one randomly chosen axis. Out-of-range days roll
// over into the following month.
func perturbDate(base time.Time, rng randomSource) time.Time {
	y, m, d := base.Date()
	loc := base.Location()

	switch r := rng.Float64(); {
	case r < 0.40:
		offset := rng.Intn(31) - 15
		if offset == 0 {
			offset = 1
		}
		shifted := time.Date(y+offset, m, d, 0, 0, 0, 0, loc)
		return time.Date(shifted.Year(), time.Month(rng.Intn(12)+1), shifted.Day(), 0, 0, 0, 0, loc)
	case r < 0.70:
		shifted := time.Date(y, time.Month(rng.Intn(12)+1), d, 0, 0, 0, 0, loc)
		return time.Date(shifted.Year(), shifted.Month(), rng.Intn(28)+1, 0, 0, 0, 0, loc)
	case r < 0.85:
		decades := []int{-20, -10, 10, 20}
		return time.Date(y+decades[rng.Intn(len(decades))], m, d, 0, 0, 0, 0, loc)
	default:
		offset := rng.Intn(5) - 2
		if offset == 0 {
			offset = -1
		}
		days := -5
		if rng.Float64() > 0.5 {
			days = 5
		}
		return time.Date(y+offset, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, days)
	}
}

// shuffle is a Fisher-Yates shuffle.
func shuffle(values []string, rng randomSource) {
	for i := len(values) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}
