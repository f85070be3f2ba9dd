package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// memberFromClaims rebuilds the session's member identity from its token.
func memberFromClaims(claims *models.JWTClaims) models.Member {
	return models.Member{
		ID:         models.ID(claims.MemberID),
		FullName:   claims.FullName,
		Login:      claims.Login,
		HasVehicle: models.Flag(claims.Driver),
	}
}

func idParam(c *gin.Context, name string) models.ID {
	return models.ID(c.Param(name))
}
