package cart

import (
	"strings"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/cache"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

// Owner identifies who a cart belongs to: an authenticated user, an anonymous
// session, or both. At least one identifier must be present.
type Owner struct {
	UserID    *uuid.UUID
	SessionID *string
}

// OwnerForUser builds an owner for an authenticated user.
func OwnerForUser(userID uuid.UUID) Owner {
	return Owner{UserID: &userID}
}

// OwnerForSession builds an owner for an anonymous session.
func OwnerForSession(sessionID string) Owner {
	trimmed := strings.TrimSpace(sessionID)
	return Owner{SessionID: &trimmed}
}

// Validate checks that the owner carries a usable identity.
func (o Owner) Validate() error {
	if o.UserID != nil && *o.UserID != uuid.Nil {
		return nil
	}
	if o.SessionID != nil && strings.TrimSpace(*o.SessionID) != "" {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "cart owner requires a user or session identifier")
}

// CacheScope returns the cache namespace and key for this owner. User identity
// wins when both are present.
func (o Owner) CacheScope() (string, string) {
	if o.UserID != nil && *o.UserID != uuid.Nil {
		return cache.ScopeUser, o.UserID.String()
	}
	if o.SessionID != nil {
		return cache.ScopeSession, *o.SessionID
	}
	return "", ""
}

// ownerScopes lists every cache scope a cart row is reachable from.
func ownerScopes(c *models.Cart) [][2]string {
	var scopes [][2]string
	if c == nil {
		return scopes
	}
	if c.UserID != nil && *c.UserID != uuid.Nil {
		scopes = append(scopes, [2]string{cache.ScopeUser, c.UserID.String()})
	}
	if c.SessionID != nil && *c.SessionID != "" {
		scopes = append(scopes, [2]string{cache.ScopeSession, *c.SessionID})
	}
	return scopes
}
