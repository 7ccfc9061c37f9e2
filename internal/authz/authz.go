// Package authz decides whether an actor may perform an HTTP method on a
// resource. Role grants live in a casbin policy; ownership is compared here.
package authz

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"yamdb/internal/microservices/http-api/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Kind is the class of resource being accessed.
type Kind string

const (
	Catalog Kind = "catalog" // categories, genres, titles
	Content Kind = "content" // reviews, comments
	Users   Kind = "users"
	Me      Kind = "me"
)

// Capability is what a request needs from its actor.
type Capability string

const (
	Safe          Capability = "safe"
	Authenticated Capability = "authenticated"
	Owner         Capability = "owner"
	Moderator     Capability = "moderator"
	Admin         Capability = "admin"
)

// Actor is the authenticated caller. A nil *Actor is anonymous.
type Actor struct {
	ID       string
	Username string
	Role     models.Role
}

func ActorFromUser(u *models.User) *Actor {
	return &Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// Resource identifies the target. AuthorID is set for a single review or
// comment and empty for collections.
type Resource struct {
	Kind     Kind
	AuthorID string
}

type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New builds an Authorizer from the embedded model and policy.
func New() (*Authorizer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: e}, nil
}

func loadPolicy(e *casbin.Enforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := e.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// IsSafe reports whether method is read-only.
func IsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Required returns the capability the request needs.
func Required(actor *Actor, method string, res Resource) Capability {
	switch res.Kind {
	case Catalog:
		if IsSafe(method) {
			return Safe
		}
		return Admin
	case Content:
		switch {
		case IsSafe(method):
			return Safe
		case res.AuthorID == "":
			return Authenticated
		case actor != nil && actor.ID == res.AuthorID:
			return Owner
		}
		return Moderator
	case Me:
		return Authenticated
	}
	return Admin
}

// CanAccess reports whether actor may perform method on res.
func (a *Authorizer) CanAccess(actor *Actor, method string, res Resource) bool {
	capability := Required(actor, method, res)
	if capability == Safe {
		return true
	}
	if actor == nil {
		return false
	}
	ok, err := a.enforcer.Enforce(string(actor.Role), string(res.Kind), string(capability))
	return err == nil && ok
}
