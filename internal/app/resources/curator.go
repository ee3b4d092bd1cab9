package resources

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/prima-scholar/internal/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

const defaultLimit = 5

// Curator recommends catalog resources that fit a student's level and
// target distinction.
type Curator struct {
	profiles domain.ProfileStore
	catalog  []domain.Resource
}

// NewCurator loads the embedded catalog.
func NewCurator(profiles domain.ProfileStore) (*Curator, error) {
	catalog, err := ParseCatalog(catalogYAML)
	if err != nil {
		return nil, err
	}
	return &Curator{profiles: profiles, catalog: catalog}, nil
}

func ParseCatalog(raw []byte) ([]domain.Resource, error) {
	var catalog []domain.Resource
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parsing resource catalog: %w", err)
	}
	for i, r := range catalog {
		if r.Title == "" {
			return nil, fmt.Errorf("resource catalog entry %d has no title", i)
		}
	}
	return catalog, nil
}

// ForStudent curates resources for a stored profile.
func (c *Curator) ForStudent(ctx context.Context, id domain.StudentID, limit int) ([]domain.Resource, error) {
	p, err := c.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	target := p.TargetDistinction
	if target == "" {
		target = domain.DeanList
	}
	return Curate(c.catalog, p.AcademicLevel, target, limit), nil
}

// Curate keeps resources for level (or for every level) that move target,
// orders them by excellence level then impact on target, and returns at most
// limit of them.
func Curate(catalog []domain.Resource, level domain.AcademicLevel, target domain.Distinction, limit int) []domain.Resource {
	if limit <= 0 {
		limit = defaultLimit
	}

	out := make([]domain.Resource, 0, len(catalog))
	for _, r := range catalog {
		if r.TargetLevel != "" && r.TargetLevel != level {
			continue
		}
		if r.ImpactOnDistinction[target] <= 0 {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].ExcellenceLevel.Rank(), out[j].ExcellenceLevel.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].ImpactOnDistinction[target] > out[j].ImpactOnDistinction[target]
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
