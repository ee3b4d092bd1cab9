package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/prima-scholar/internal/adapters/storage/memory"
	"github.com/PabloGalante/prima-scholar/internal/domain"
)

func titles(rs []domain.Resource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestEmbeddedCatalogParses(t *testing.T) {
	catalog, err := ParseCatalog(catalogYAML)
	require.NoError(t, err)
	assert.NotEmpty(t, catalog)
	for _, r := range catalog {
		assert.NotEmpty(t, r.URL, r.Title)
		assert.NotEmpty(t, r.ExcellenceLevel, r.Title)
	}
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	_, err := ParseCatalog([]byte("- type: guide\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("{not a list"))
	assert.Error(t, err)
}

func TestCurate(t *testing.T) {
	catalog := []domain.Resource{
		{Title: "basic", ExcellenceLevel: domain.TierBasic, ImpactOnDistinction: map[domain.Distinction]float64{domain.DeanList: 0.9}},
		{Title: "elite-low", ExcellenceLevel: domain.TierElite, ImpactOnDistinction: map[domain.Distinction]float64{domain.DeanList: 0.2}},
		{Title: "elite-high", ExcellenceLevel: domain.TierElite, ImpactOnDistinction: map[domain.Distinction]float64{domain.DeanList: 0.7}},
		{Title: "doctoral", ExcellenceLevel: domain.TierElite, TargetLevel: domain.LevelDoctoral, ImpactOnDistinction: map[domain.Distinction]float64{domain.DeanList: 1}},
		{Title: "other target", ExcellenceLevel: domain.TierElite, ImpactOnDistinction: map[domain.Distinction]float64{domain.RhodesScholar: 1}},
	}

	got := Curate(catalog, domain.LevelUndergraduate, domain.DeanList, 0)
	assert.Equal(t, []string{"elite-high", "elite-low", "basic"}, titles(got))

	got = Curate(catalog, domain.LevelDoctoral, domain.DeanList, 2)
	assert.Equal(t, []string{"doctoral", "elite-high"}, titles(got))
}

func TestForStudent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.UpsertProfile(ctx, &domain.ScholarProfile{
		StudentID:         "stu-1",
		AcademicLevel:     domain.LevelUndergraduate,
		TargetDistinction: domain.RhodesScholar,
	}))

	c, err := NewCurator(store)
	require.NoError(t, err)

	got, err := c.ForStudent(ctx, "stu-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Rhodes Scholarship Application Guide", got[0].Title)

	_, err = c.ForStudent(ctx, "ghost", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
