package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/pkg/backend"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

// MemberRepository reads members (membros) from the parish backend.
type MemberRepository struct {
	client backendClient
}

// NewMemberRepository constructs a member repository.
func NewMemberRepository(client backendClient) *MemberRepository {
	return &MemberRepository{client: client}
}

// List returns every member, including their capability flags.
func (r *MemberRepository) List(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := r.client.GetJSON(ctx, "/api/membros", &members); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// FindByID loads the complete member record. The backend has no single-member route,
// so the full list is scanned.
func (r *MemberRepository) FindByID(ctx context.Context, id models.ID) (*models.Member, error) {
	members, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			return &members[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
}

// CheckLogin looks up the partial profile for an already normalised login handle.
// A 404 from the backend is an unknown login, not a failure.
func (r *MemberRepository) CheckLogin(ctx context.Context, login string) (*models.LoginProfile, error) {
	var profile models.LoginProfile
	if err := r.client.Lookup(ctx, "/api/membros/check-login", map[string]string{"login": login}, &profile); err != nil {
		if backend.StatusOf(err) == http.StatusNotFound {
			return &models.LoginProfile{Found: false}, nil
		}
		return nil, fmt.Errorf("check login: %w", err)
	}
	return &profile, nil
}
