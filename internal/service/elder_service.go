package service

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

// NeighborhoodCount summarises active elders per neighborhood.
type NeighborhoodCount struct {
	Neighborhood string `json:"neighborhood"`
	Elders       int    `json:"elders"`
}

// ElderService lists elders and prepares outreach links.
type ElderService struct {
	repo      elderLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewElderService constructs ElderService.
func NewElderService(repo elderLister, validate *validator.Validate, logger *zap.Logger) *ElderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElderService{repo: repo, validator: validate, logger: logger}
}

// List filters elders by active flag, neighborhood and a free-text search over name and
// neighborhood. Matching ignores case and accents.
func (s *ElderService) List(ctx context.Context, filter models.ElderFilter) ([]models.Elder, error) {
	elders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	search := foldText(filter.Search)
	neighborhood := foldText(filter.Neighborhood)
	result := make([]models.Elder, 0, len(elders))
	for _, e := range elders {
		if filter.Active != nil && bool(e.Active) != *filter.Active {
			continue
		}
		if neighborhood != "" && foldText(e.NeighborhoodKey()) != neighborhood {
			continue
		}
		if search != "" && !strings.Contains(foldText(e.FullName), search) && !strings.Contains(foldText(e.Neighborhood), search) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

// Neighborhoods counts active elders per neighborhood, largest first.
func (s *ElderService) Neighborhoods(ctx context.Context) ([]NeighborhoodCount, error) {
	elders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	var order []string
	for _, e := range elders {
		if !e.Active {
			continue
		}
		key := e.NeighborhoodKey()
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key]++
	}

	result := make([]NeighborhoodCount, 0, len(order))
	for _, key := range order {
		result = append(result, NeighborhoodCount{Neighborhood: key, Elders: counts[key]})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Elders > result[j].Elders })
	return result, nil
}

// WhatsApp prepares message links for the selected elders.
func (s *ElderService) WhatsApp(ctx context.Context, req dto.WhatsAppRequest) ([]dto.WhatsAppLink, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid whatsapp payload")
	}
	elders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	links := WhatsAppLinks(elders, req)

	skipped := 0
	for _, l := range links {
		if l.Skipped != "" {
			skipped++
		}
	}
	s.logger.Info("whatsapp links prepared",
		zap.String("recipient", req.Recipient),
		zap.Int("links", len(links)-skipped),
		zap.Int("skipped", skipped),
	)
	return links, nil
}

// foldText lowercases s and strips combining marks so "José" matches "jose".
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
