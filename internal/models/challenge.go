package models

import "time"

// ChallengeType names the private date fact a claimant must recognise.
type ChallengeType string

const (
	ChallengeBirthDate   ChallengeType = "birthDate"
	ChallengeWeddingDate ChallengeType = "weddingDate"
)

// PendingChallenge is the server-side record of an issued challenge.
// Only a hash of the correct option is retained.
type PendingChallenge struct {
	ID         string        `json:"id"`
	Type       ChallengeType `json:"type"`
	AnswerHash []byte        `json:"answer_hash"`
	Profile    Member        `json:"profile"`
	IssuedAt   time.Time     `json:"issued_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
}
