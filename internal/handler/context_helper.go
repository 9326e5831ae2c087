package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bidworks/collab-api/internal/middleware"
	"github.com/bidworks/collab-api/internal/models"
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

func principalFromContext(c *gin.Context) models.Principal {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Principal{}
	}
	return models.Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.FullName,
	}
}
