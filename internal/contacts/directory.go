// Package contacts builds the per-request snapshot that maps canonical phone
// numbers onto contact identities. The snapshot is an explicit value threaded
// through the aggregator, never shared state.
package contacts

import (
	"context"

	"github.com/smsvault/smsvault/internal/phone"
)

// Contact is one directory entry as the external provider reports it.
type Contact struct {
	DisplayName string
	Numbers     []string
	Photo       string
	UID         string
}

// Provider is the external contacts collaborator.
type Provider interface {
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
}

// Directory is a read-only snapshot keyed by canonical number form.
type Directory struct {
	// Contacts maps canonical number -> display name.
	Contacts map[string]string
	// Inverse maps display name -> every canonical number it owns. A contact
	// with mobile and home numbers folds into one conversation identity.
	Inverse map[string][]string
	// Photos maps display name -> photo reference.
	Photos map[string]string
	// UIDs maps canonical number -> external directory id.
	UIDs map[string]string

	country string
}

// Build canonicalizes a provider listing into a directory snapshot under the
// user's configured country.
func Build(country string, listing []Contact) *Directory {
	d := &Directory{
		Contacts: map[string]string{},
		Inverse:  map[string][]string{},
		Photos:   map[string]string{},
		UIDs:     map[string]string{},
		country:  country,
	}

	for _, contact := range listing {
		for _, number := range contact.Numbers {
			canonical := phone.Canonicalize(country, number)
			d.Contacts[canonical] = contact.DisplayName
			d.Inverse[contact.DisplayName] = append(d.Inverse[contact.DisplayName], canonical)
			if contact.UID != "" {
				d.UIDs[canonical] = contact.UID
			}
		}
		if contact.Photo != "" {
			d.Photos[contact.DisplayName] = contact.Photo
		}
	}
	return d
}

// Resolve maps an arbitrary incoming number onto a display name: the raw
// string first, then its canonical form. Unknown numbers resolve to their own
// canonical form, so they stay a conversation identity of their own.
func (d *Directory) Resolve(number string) string {
	if name, ok := d.Contacts[number]; ok {
		return name
	}
	canonical := phone.Canonicalize(d.country, number)
	if name, ok := d.Contacts[canonical]; ok {
		return name
	}
	return canonical
}

// NameFor returns the display name owning the canonical form of number, or
// "" when the directory does not know it.
func (d *Directory) NameFor(number string) string {
	return d.Contacts[phone.Canonicalize(d.country, number)]
}

// NullProvider is the directory collaborator used when no external contacts
// source is configured; every number stays its own identity.
type NullProvider struct{}

func (NullProvider) ListContacts(context.Context, string) ([]Contact, error) {
	return nil, nil
}
