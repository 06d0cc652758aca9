package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformlab/bindcheck/types"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry(t *testing.T) {
	validManifest := `
checks:
  - name: widget-compiles
    source: WidgetCheck.java
  - name: widget-renders
    source: WidgetCheck.java
    mode: emulate
    class: com.example.WidgetCheck
    platforms: ["33.0"]
    deps: [extra.jar]
`
	configPath := writeManifest(t, validManifest)

	t.Run("manifest loading", func(t *testing.T) {
		tests := []struct {
			name    string
			cfg     Config
			wantErr bool
		}{
			{
				name:    "valid manifest",
				cfg:     Config{ManifestFile: configPath},
				wantErr: false,
			},
			{
				name:    "missing manifest path",
				cfg:     Config{},
				wantErr: true,
			},
			{
				name:    "nonexistent manifest",
				cfg:     Config{ManifestFile: "nonexistent.yaml"},
				wantErr: true,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewRegistry(tt.cfg)
				if tt.wantErr {
					require.Error(t, err)
					return
				}
				require.NoError(t, err)
			})
		}
	})

	t.Run("parsed checks", func(t *testing.T) {
		r, err := NewRegistry(Config{ManifestFile: configPath, SourceDir: "/checks"})
		require.NoError(t, err)

		checks := r.Checks()
		require.Len(t, checks, 2)

		assert.Equal(t, "widget-compiles", checks[0].Name)
		assert.Equal(t, types.CheckModeCompile, checks[0].Mode, "mode defaults to compile")
		assert.Equal(t, filepath.Join("/checks", "WidgetCheck.java"), checks[0].Source)

		assert.Equal(t, types.CheckModeEmulate, checks[1].Mode)
		assert.Equal(t, "com.example.WidgetCheck", checks[1].Class)
		assert.Equal(t, []string{"33.0"}, checks[1].Platforms)
		assert.Equal(t, []string{"extra.jar"}, checks[1].Deps)
	})

	t.Run("checks are copied", func(t *testing.T) {
		r, err := NewRegistry(Config{ManifestFile: configPath})
		require.NoError(t, err)

		checks := r.Checks()
		checks[0].Name = "mutated"
		assert.Equal(t, "widget-compiles", r.Checks()[0].Name)
	})
}

func TestRegistryValidation(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  string
	}{
		{
			name:     "empty manifest",
			manifest: "checks: []\n",
			wantErr:  "declares no checks",
		},
		{
			name: "missing name",
			manifest: `
checks:
  - source: A.java
`,
			wantErr: "name is required",
		},
		{
			name: "missing source",
			manifest: `
checks:
  - name: broken
`,
			wantErr: "source is required",
		},
		{
			name: "unknown mode",
			manifest: `
checks:
  - name: broken
    source: A.java
    mode: interpret
`,
			wantErr: "unknown mode",
		},
		{
			name: "emulate without class",
			manifest: `
checks:
  - name: broken
    source: A.java
    mode: emulate
`,
			wantErr: "require a test class",
		},
		{
			name: "duplicate names",
			manifest: `
checks:
  - name: twin
    source: A.java
  - name: twin
    source: B.java
`,
			wantErr: "duplicate check name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(Config{ManifestFile: writeManifest(t, tt.manifest)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAppliesTo(t *testing.T) {
	all := types.CheckConfig{Name: "a", Source: "A.java"}
	assert.True(t, all.AppliesTo("30.0"))
	assert.True(t, all.AppliesTo("33.0"))

	filtered := types.CheckConfig{Name: "b", Source: "B.java", Platforms: []string{"33.0"}}
	assert.True(t, filtered.AppliesTo("33.0"))
	assert.False(t, filtered.AppliesTo("30.0"))
}
