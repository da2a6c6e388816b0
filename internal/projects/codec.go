package projects

import (
	"encoding/json"
	"fmt"

	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
)

// encodeDoc converts a typed value into the schemaless document shape
// the docstore persists. Timestamps become RFC 3339 strings.
func encodeDoc(v any) (docstore.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("projects: encode document: %w", err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("projects: encode document: %w", err)
	}
	return doc, nil
}

// decodeProject hydrates a Project from its stored document.
func decodeProject(doc docstore.Document) (Project, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return Project{}, fmt.Errorf("projects: decode document: %w", err)
	}
	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return Project{}, fmt.Errorf("projects: decode document: %w", err)
	}
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	if p.Attachments == nil {
		p.Attachments = []Attachment{}
	}
	return p, nil
}
