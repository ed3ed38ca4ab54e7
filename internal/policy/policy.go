package policy

import (
	"slices"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
)

type Capability string

const (
	ManageCatalog Capability = "manage_catalog"
	ManageOrders  Capability = "manage_orders"
	ViewAllOrders Capability = "view_all_orders"
	AccessOwnData Capability = "access_own_data"
)

var (
	ErrUnauthenticated = apperr.New(apperr.ErrUnauthorized, "authentication required")
	ErrDenied          = apperr.New(apperr.ErrForbidden, "you don't have enough rights")
)

// Principal is the authenticated caller taken from a valid access token.
type Principal struct {
	UserID   string
	UserName string
	Roles    []string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && slices.Contains(p.Roles, models.RoleAdmin)
}

// Authorize checks p against cap. ownerID is only consulted for AccessOwnData.
func Authorize(p *Principal, cap Capability, ownerID string) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}
	if p.IsAdmin() {
		return nil
	}
	if cap == AccessOwnData && ownerID != "" && ownerID == p.UserID {
		return nil
	}
	return ErrDenied
}
