package service

import (
	"context"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
templates:
  - name: three-tier web
    type: architecture
    content:
      tiers: [web, app, db]
      ha: true
  - name: golden pipeline
    type: pipeline
    content:
      stages: 4
`

func TestTemplateService_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds an empty store once", func(t *testing.T) {
		svc := NewTemplateService(repository.NewTemplateRepository(memory.New()))

		n, err := svc.Seed(ctx, strings.NewReader(seedYAML))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "three-tier web", list[0].Name)
		assert.Equal(t, domain.TemplateArchitecture, list[0].Type)
		assert.Equal(t, []any{"web", "app", "db"}, list[0].Content["tiers"])
		assert.Equal(t, float64(4), list[1].Content["stages"])

		n, err = svc.Seed(ctx, strings.NewReader(seedYAML))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("rejects unknown type without writing", func(t *testing.T) {
		svc := NewTemplateService(repository.NewTemplateRepository(memory.New()))

		_, err := svc.Seed(ctx, strings.NewReader("templates:\n  - name: ok\n    type: pipeline\n  - name: x\n    type: networking\n"))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "templates[1].type", verr.Field)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("empty document seeds nothing", func(t *testing.T) {
		svc := NewTemplateService(repository.NewTemplateRepository(memory.New()))
		n, err := svc.Seed(ctx, strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}
