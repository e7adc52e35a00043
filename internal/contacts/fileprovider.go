package contacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileProvider serves directory snapshots from a JSON file. It stands in for
// the real directory service in development and small deployments; entries
// apply to every user.
type FileProvider struct {
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

type fileContact struct {
	Name    string   `json:"name"`
	Numbers []string `json:"numbers"`
	Photo   string   `json:"photo"`
	UID     string   `json:"uid"`
}

func (p *FileProvider) ListContacts(_ context.Context, _ string) ([]Contact, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("reading contacts file: %w", err)
	}

	listing := struct {
		Contacts []fileContact `json:"contacts"`
	}{}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("parsing contacts file: %w", err)
	}

	contacts := make([]Contact, 0, len(listing.Contacts))
	for _, entry := range listing.Contacts {
		contacts = append(contacts, Contact{
			DisplayName: entry.Name,
			Numbers:     entry.Numbers,
			Photo:       entry.Photo,
			UID:         entry.UID,
		})
	}
	return contacts, nil
}
