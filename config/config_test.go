package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, files map[string]string) {
	t.Helper()
	orig := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = orig })
	for path, contents := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0o644))
	}
}

func TestLoadDefaults(t *testing.T) {
	memFs(t, nil)

	cfg, err := Load("", "/srv/site")
	require.NoError(t, err)
	assert.Equal(t, "/srv/site", cfg.Root)
	assert.Equal(t, "manifest.json", cfg.Manifest)
	assert.Equal(t, "/srv/site/manifest.json", cfg.ManifestPath())
	assert.Equal(t, "site", cfg.ProjectName)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.False(t, cfg.Server.Write)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.File)
	assert.Equal(t, filepath.Join("/srv/site", UploadsDirName), cfg.UploadsPath())
}

func TestLoadFileFromRoot(t *testing.T) {
	memFs(t, map[string]string{
		"/srv/site/asset-manifest.yaml": `
project_name: Toaru
manifest: data/assets.json
exclude:
  dirs: [node_modules]
  files: ["*.tmp"]
server:
  port: 8080
  write: true
  uploads_dir: /var/tmp/up
log:
  level: debug
  format: json
journal:
  enabled: false
`,
	})

	cfg, err := Load("", "/srv/site")
	require.NoError(t, err)
	assert.Equal(t, "/srv/site/asset-manifest.yaml", cfg.File)
	assert.Equal(t, "Toaru", cfg.ProjectName)
	assert.Equal(t, "/srv/site/data/assets.json", cfg.ManifestPath())
	assert.Equal(t, []string{"node_modules"}, cfg.Exclude.Dirs)
	assert.Equal(t, []string{"*.tmp"}, cfg.Exclude.Files)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.Write)
	assert.Equal(t, "/var/tmp/up", cfg.UploadsPath())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	memFs(t, map[string]string{
		"/cfg/tool.yaml": "server:\n  port: 8080\n",
	})
	t.Setenv("ASSETMAN_SERVER_PORT", "7777")
	t.Setenv("ASSETMAN_SERVER_UPLOADS_DIR", "incoming")
	t.Setenv("ASSETMAN_PROJECT_NAME", "FromEnv")
	t.Setenv("ASSETMAN_ROOT", "/env/root")

	cfg, err := Load("/cfg/tool.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "/env/root", cfg.Root)
	assert.Equal(t, "FromEnv", cfg.ProjectName)
	assert.Equal(t, "/env/root/incoming", cfg.UploadsPath())
}

func TestLoadExplicitFileMissing(t *testing.T) {
	memFs(t, nil)
	_, err := Load("/nope.yaml", "/srv")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":   "server: [",
		"bad port":   "server:\n  port: 70000\n",
		"bad level":  "log:\n  level: loud\n",
		"bad format": "log:\n  format: xml\n",
	}
	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			memFs(t, map[string]string{"/srv/asset-manifest.yaml": contents})
			_, err := Load("", "/srv")
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.uploads_dir", envKey("ASSETMAN_SERVER_UPLOADS_DIR"))
	assert.Equal(t, "log.level", envKey("ASSETMAN_LOG_LEVEL"))
	assert.Equal(t, "project_name", envKey("ASSETMAN_PROJECT_NAME"))
	assert.Equal(t, "root", envKey("ASSETMAN_ROOT"))
}
