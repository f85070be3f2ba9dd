package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

type memberDirectory interface {
	CheckLogin(ctx context.Context, login string) (*models.LoginProfile, error)
	FindByID(ctx context.Context, id models.ID) (*models.Member, error)
}

type sessionIssuer interface {
	Issue(member models.Member) (*models.Session, error)
}

// ChallengeConfig tunes the identity challenge.
type ChallengeConfig struct {
	TTL      time.Duration
	HashCost int
	Location *time.Location
}

// ChallengeService verifies a claimed login by asking for a private date among decoys.
type ChallengeService struct {
	members   memberDirectory
	store     ChallengeStore
	sessions  sessionIssuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    ChallengeConfig
	rng       randomSource
	now       func() time.Time
}

// NewChallengeService wires the verifier. metrics may be nil.
func NewChallengeService(
	members memberDirectory,
	store ChallengeStore,
	sessions sessionIssuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ChallengeConfig,
) *ChallengeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.HashCost < bcrypt.MinCost || cfg.HashCost > bcrypt.MaxCost {
		cfg.HashCost = bcrypt.DefaultCost
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ChallengeService{
		members:   members,
		store:     store,
		sessions:  sessions,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		rng:       newLockedRand(),
		now:       time.Now,
	}
}

// Begin looks up the login and issues a four-option date challenge. The same login may get
// a different challenge type on every call.
func (s *ChallengeService) Begin(ctx context.Context, req dto.BeginChallengeRequest) (*dto.ChallengeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "login is required")
	}
	login := strings.ToUpper(strings.TrimSpace(req.Login))
	if login == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "login is required")
	}

	profile, err := s.members.CheckLogin(ctx, login)
	if err != nil {
		s.metrics.ObserveChallenge("begin", "error")
		s.logger.Warn("login lookup failed", zap.String("login", login), zap.Error(err))
		return nil, err
	}
	if profile == nil || !profile.Found {
		s.metrics.ObserveChallenge("begin", "not_found")
		return nil, appErrors.Clone(appErrors.ErrNotFound, "login not found")
	}

	member := profile.Member
	if member.Login == "" {
		member.Login = login
	}

	challengeType, rawDate := s.pickChallenge(member)
	base, err := ParseChallengeDate(rawDate, s.config.Location)
	if err != nil {
		s.metrics.ObserveChallenge("begin", "no_date")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "profile has no date to verify")
	}

	now := s.now().In(s.config.Location)
	correct, options, err := ChallengeOptions(base, now, s.rng)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build challenge")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(correct), s.config.HashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build challenge")
	}

	pending := models.PendingChallenge{
		ID:         uuid.NewString(),
		Type:       challengeType,
		AnswerHash: hash,
		Profile:    member,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.config.TTL),
	}
	if err := s.store.Save(ctx, pending); err != nil {
		return nil, err
	}
	s.metrics.ObserveChallenge("begin", "issued")

	return &dto.ChallengeResponse{
		ChallengeID:   pending.ID,
		ChallengeType: challengeType,
		DisplayName:   member.FirstName(),
		Options:       options,
		ExpiresAt:     pending.ExpiresAt,
	}, nil
}

// Answer grades one option. The challenge is consumed whatever the outcome; a wrong answer
// means starting over with Begin. On success the complete profile is fetched, falling back
// to the lookup projection with Degraded set when that fetch fails.
func (s *ChallengeService) Answer(ctx context.Context, req dto.AnswerChallengeRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	pending, err := s.store.Take(ctx, req.ChallengeID)
	if err != nil {
		s.metrics.ObserveChallenge("answer", "expired")
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(pending.AnswerHash, []byte(req.Option)); err != nil {
		s.metrics.ObserveChallenge("answer", "mismatch")
		s.logger.Info("challenge answered incorrectly",
			zap.String("member_id", pending.Profile.ID.String()),
			zap.String("challenge_type", string(pending.Type)),
		)
		return nil, appErrors.Clone(appErrors.ErrValidationMismatch, "incorrect date, start again")
	}

	member, degraded := s.completeProfile(ctx, pending.Profile)
	session, err := s.sessions.Issue(member)
	if err != nil {
		return nil, err
	}
	session.Degraded = degraded

	outcome := "success"
	if degraded {
		outcome = "degraded"
	}
	s.metrics.ObserveChallenge("answer", outcome)
	s.logger.Info("challenge passed",
		zap.String("member_id", member.ID.String()),
		zap.Bool("driver", member.IsDriver()),
		zap.Bool("degraded", degraded),
	)
	return session, nil
}

func (s *ChallengeService) pickChallenge(m models.Member) (models.ChallengeType, string) {
	if m.IsMarried() && m.WeddingDate != "" && s.rng.Float64() > 0.5 {
		return models.ChallengeWeddingDate, m.WeddingDate
	}
	return models.ChallengeBirthDate, m.BirthDate
}

func (s *ChallengeService) completeProfile(ctx context.Context, partial models.Member) (models.Member, bool) {
	full, err := s.members.FindByID(ctx, partial.ID)
	if err != nil || full == nil {
		fields := []zap.Field{zap.String("member_id", partial.ID.String())}
		if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
			fields = append(fields, zap.Error(err))
		}
		s.logger.Warn("complete profile unavailable, using lookup projection", fields...)
		return partial, true
	}
	member := *full
	if member.Login == "" {
		member.Login = partial.Login
	}
	return member, false
}
