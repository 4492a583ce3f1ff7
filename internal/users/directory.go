package users

import (
	"slices"

	"github.com/miradorstack/meterd/internal/models"
)

// Directory serves the trusted-user list. Entries are static; there is no backend.
type Directory struct {
	users []models.TrustedUser
}

// NewDirectory returns a directory preloaded with the demo users.
func NewDirectory() *Directory {
	return &Directory{users: []models.TrustedUser{
		{ID: "did:ethr:0x1234...5678", Name: "Alice Johnson", LastActive: "2 hours ago", Online: true},
		{ID: "did:ethr:0x8765...4321", Name: "Bob Smith", LastActive: "5 minutes ago", Online: true},
		{ID: "did:ethr:0x9876...1234", Name: "Carol White", LastActive: "Just now", Online: false},
	}}
}

// List returns a copy of all trusted users.
func (d *Directory) List() []models.TrustedUser {
	return slices.Clone(d.users)
}

// Online counts users currently marked online.
func (d *Directory) Online() int {
	n := 0
	for _, u := range d.users {
		if u.Online {
			n++
		}
	}
	return n
}
