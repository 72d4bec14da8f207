package service

import "github.com/iliyamo/restaurant-orders/internal/model"

// landingPaths maps every role to the page it starts on.
var landingPaths = map[model.Role]string{
	model.RoleWaiter:    "/select-table/",
	model.RoleCook:      "/kitchen-queue/",
	model.RoleAdmin:     "/admin-users/",
	model.RoleReception: "/reception/",
}

// Destination is where GET / sends a user.  Recognized is false when the
// role has no landing page; the caller then renders the home page.
type Destination struct {
	Path       string
	Recognized bool
}

// Landing picks the start page for a user.  Superusers go to backOffice
// whatever their role.
func Landing(role model.Role, superuser bool, backOffice string) Destination {
	if superuser {
		return Destination{Path: backOffice, Recognized: true}
	}
	p, ok := landingPaths[role]
	if !ok {
		return Destination{}
	}
	return Destination{Path: p, Recognized: true}
}
