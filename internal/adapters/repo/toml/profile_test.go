package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() domain.Profile {
	return domain.Profile{
		Build: "11.1.2.4",
		Operations: map[domain.Operation][]domain.CapabilityDescriptor{
			domain.OpConsolidate: {
				{
					Class:   "oracle.epm.fm.domainobject.data.DataOM",
					Method:  "executeServerTask",
					Pattern: domain.PatternObject,
					Ctor:    domain.Shape{domain.TypeSession},
					Shapes:  []domain.Shape{{domain.TypePOVList, domain.TypeTaskType}},
					Builds:  []string{"11.1.2.4"},
				},
			},
		},
		Login: []domain.CapabilityDescriptor{
			{
				Class:   "oracle.epm.fm.hssservice.ServiceClientFactory",
				Factory: "getInstance",
				Via:     "getSecurityService",
				Method:  "login",
				Release: "logout",
				Pattern: domain.PatternLogin,
				Shapes:  []domain.Shape{{domain.TypeUser, domain.TypePassword, domain.TypeCluster}, {}},
			},
		},
		Aliases: domain.AliasTable{domain.KeyPOV: {"slice"}},
	}
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"profile.toml", "profile.yaml"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			repo, err := NewProfileRepository(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)

			want := sampleProfile()
			require.NoError(t, repo.Save(context.Background(), want))

			got, err := repo.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestProfileLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	repo, err := NewProfileRepository(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestProfileLoadRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown operation",
			content: "[[operations.Reboot]]\nclass = \"A\"\nmethod = \"run\"\nshapes = [[]]\n",
			want:    "unknown operation",
		},
		{
			name:    "unknown parameter type",
			content: "[[login]]\nclass = \"A\"\nmethod = \"login\"\npattern = \"login\"\nshapes = [[\"double\"]]\n",
			want:    "profile login[0] shapes",
		},
		{
			name:    "missing method",
			content: "[[status_queries]]\nclass = \"A\"\nshapes = [[]]\n",
			want:    "profile status_queries[0]",
		},
		{
			name:    "alias for unknown key",
			content: "[aliases]\nFoo = [\"bar\"]\n",
			want:    "unknown parameter \"Foo\"",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "profile.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			repo, err := NewProfileRepository(path)
			require.NoError(t, err)

			_, err = repo.Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProfileYAMLHandWritten(t *testing.T) {
	t.Parallel()

	content := `version: 1
build: "11.1.2.4"
status_queries:
  - class: oracle.epm.fm.domainobject.administration.AdministrationOM
    method: getCurrentTaskProgress
    pattern: object
    ctor: [session]
    shapes:
      - ["int[]"]
`
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	repo, err := NewProfileRepository(path)
	require.NoError(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.StatusQueries, 1)
	assert.Equal(t, "AdministrationOM.getCurrentTaskProgress", got.StatusQueries[0].QualifiedName())
	assert.Equal(t, domain.Shape{domain.TypeSession}, got.StatusQueries[0].Ctor)
	assert.Equal(t, []domain.Shape{{domain.TypeTaskIDs}}, got.StatusQueries[0].Shapes)
}
