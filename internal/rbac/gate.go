package rbac

import (
	"time"

	"sprintlite/internal/apierr"
	"sprintlite/internal/auth"
)

// Gate admits or rejects requests. Every call re-verifies the token and re-evaluates
// the table; nothing is cached.
type Gate struct {
	tokens auth.AccessVerifier
	policy *Policy
	clock  func() time.Time
}

func NewGate(tokens auth.AccessVerifier, policy *Policy) *Gate {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Gate{tokens: tokens, policy: policy, clock: time.Now}
}

func (g *Gate) Policy() *Policy { return g.policy }

// Identify verifies the caller's access token without consulting the table.
func (g *Gate) Identify(req auth.Carrier) (auth.Identity, error) {
	tok := auth.AccessTokenFrom(req)
	if tok == "" {
		return auth.Identity{}, apierr.Unauthorized("Authentication required")
	}
	claims, err := g.tokens.VerifyAccess(tok, g.clock())
	if err != nil {
		return auth.Identity{}, apierr.Unauthorized("Invalid or expired token")
	}
	return claims.Identity(), nil
}

// Authorize returns the caller's identity when the table allows role × resource × action.
// It fails with an Unauthorized apierr on token problems and Forbidden on denial.
func (g *Gate) Authorize(req auth.Carrier, resource Resource, action Action) (auth.Identity, error) {
	id, err := g.Identify(req)
	if err != nil {
		return auth.Identity{}, err
	}
	if !g.policy.Check(id.Role, resource, action) {
		return id, apierr.Forbidden("")
	}
	return id, nil
}

// CheckOwnership is the explicit second-chance path for handlers that know the record's owner.
// It admits only when the override is defined for (resource, action) and the caller is ownerID.
func (g *Gate) CheckOwnership(req auth.Carrier, ownerID string, resource Resource, action Action) (auth.Identity, error) {
	id, err := g.Identify(req)
	if err != nil {
		return auth.Identity{}, err
	}
	if !OwnershipApplies(resource, action) || ownerID == "" || id.UserID != ownerID {
		return id, apierr.Forbidden("")
	}
	return id, nil
}

// AuthorizeOrOwner runs Authorize and, only on a table denial, CheckOwnership against ownerID.
func (g *Gate) AuthorizeOrOwner(req auth.Carrier, ownerID string, resource Resource, action Action) (auth.Identity, error) {
	id, err := g.Authorize(req, resource, action)
	if err == nil || !apierr.Is(err, apierr.KindForbidden) {
		return id, err
	}
	return g.CheckOwnership(req, ownerID, resource, action)
}
