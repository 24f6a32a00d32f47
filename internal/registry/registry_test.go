package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
models:
  - id: model-a
    name: Model A
    model: vendor/model-a
    base_url: http://localhost:8001/v1
    organization: Acme
    license: MIT
    status: active
  - id: model-b
    name: Model B
    model: vendor/model-b
    base_url: http://localhost:8002/v1
    api_key_env: MODEL_B_KEY
    organization: Bmce
    license: Apache-2.0
  - id: model-c
    name: Model C
    model: vendor/model-c
    base_url: http://localhost:8003/v1
    organization: Corp
    license: MIT
    status: inactive
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	m, ok := reg.Get("model-a")
	require.True(t, ok)
	assert.Equal(t, "Model A", m.Name)
	assert.Equal(t, "active", m.Status)

	// Omitted status defaults to active.
	m, ok = reg.Get("model-b")
	require.True(t, ok)
	assert.Equal(t, "active", m.Status)

	_, ok = reg.Get("model-z")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: "models: []"},
		{name: "missing id", content: "models:\n  - name: no id here"},
		{name: "duplicate id", content: "models:\n  - id: dup\n  - id: dup"},
		{name: "not yaml", content: "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRegistry_Active(t *testing.T) {
	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	active := reg.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "model-a", active[0].ID)
	assert.Equal(t, "model-b", active[1].ID)
}

func TestRegistry_List(t *testing.T) {
	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "model-a", infos[0].ModelID)
	assert.Equal(t, "Acme", infos[0].Provider)
}

func TestRegistry_SelectPair(t *testing.T) {
	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a, b, err := reg.SelectPair()
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
		assert.NotEqual(t, "inactive", a.Status)
		assert.NotEqual(t, "inactive", b.Status)
	}
}

func TestRegistry_SelectPairNeedsTwoActive(t *testing.T) {
	reg, err := Load(writeConfig(t, `
models:
  - id: only-one
    name: Only One
    model: vendor/only
    base_url: http://localhost:8001/v1
`))
	require.NoError(t, err)

	_, _, err = reg.SelectPair()
	assert.Error(t, err)
}

func TestRegistry_Metadata(t *testing.T) {
	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	meta := reg.Metadata()

	// Inactive models stay resolvable for historical votes.
	require.Contains(t, meta, "model-c")
	assert.Equal(t, "Corp", meta["model-c"].Organization)
	assert.Equal(t, "MIT", meta["model-c"].License)
}

func TestModel_APIKey(t *testing.T) {
	t.Setenv("MODEL_B_KEY", "secret-key")

	reg, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	m, _ := reg.Get("model-b")
	assert.Equal(t, "secret-key", m.APIKey())

	m, _ = reg.Get("model-a")
	assert.Equal(t, "", m.APIKey())
}
