package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed groups.yml
var defaultGroupsYAML []byte

// GroupFixture is one entry of a groups file.
type GroupFixture struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

type groupsFile struct {
	Groups []GroupFixture `yaml:"groups"`
}

// DefaultGroups returns the fixtures bundled with the binary.
func DefaultGroups() ([]GroupFixture, error) {
	return ParseGroups(bytes.NewReader(defaultGroupsYAML))
}

// LoadGroupsFile reads fixtures from path.
func LoadGroupsFile(path string) ([]GroupFixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseGroups(f)
}

// ParseGroups decodes a groups document and checks every entry. Slugs must be
// valid and unique within the file.
func ParseGroups(r io.Reader) ([]GroupFixture, error) {
	var doc groupsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Groups))
	for i := range doc.Groups {
		g := &doc.Groups[i]
		g.Title = strings.TrimSpace(g.Title)
		g.Slug = strings.TrimSpace(g.Slug)
		if g.Title == "" {
			return nil, fmt.Errorf("group #%d: title is required", i+1)
		}
		if err := validation.ValidateSlug(g.Slug); err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Slug, err)
		}
		if _, dup := seen[g.Slug]; dup {
			return nil, fmt.Errorf("group %q: duplicate slug", g.Slug)
		}
		seen[g.Slug] = struct{}{}
	}
	return doc.Groups, nil
}

// SeedGroups upserts fixtures by slug. Running it twice leaves one row per slug.
func SeedGroups(ctx context.Context, repo repository.GroupRepository, fixtures []GroupFixture) ([]models.Group, error) {
	groups := make([]models.Group, 0, len(fixtures))
	for _, fx := range fixtures {
		group := models.Group{Title: fx.Title, Slug: fx.Slug, Description: fx.Description}
		if err := repo.Upsert(ctx, &group); err != nil {
			return nil, fmt.Errorf("seed group %s: %w", fx.Slug, err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}
