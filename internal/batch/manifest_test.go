package batch

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest_JSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := `{
  "properties": [
    {"propertyId": "P1", "inspection": "docs/p1_i.txt", "thermal": "docs/p1_t.txt"},
    {"propertyId": "P2", "inspection": "docs/p2_i.txt", "thermal": "docs/p2_t.txt"}
  ]
}`
	require.NoError(t, afero.WriteFile(fs, "batch.json", []byte(body), 0o644))

	m, err := LoadManifest(fs, "batch.json")
	require.NoError(t, err)
	require.Len(t, m.Properties, 2)
	assert.Equal(t, "P1", m.Properties[0].PropertyID)
	assert.Equal(t, "docs/p2_t.txt", m.Properties[1].ThermalPath)
}

func TestLoadManifest_YAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := `properties:
  - propertyId: P1
    inspection: docs/p1_i.txt
    thermal: docs/p1_t.txt
`
	require.NoError(t, afero.WriteFile(fs, "batch.yaml", []byte(body), 0o644))

	m, err := LoadManifest(fs, "batch.yaml")
	require.NoError(t, err)
	require.Len(t, m.Properties, 1)
	assert.Equal(t, "docs/p1_i.txt", m.Properties[0].InspectionPath)
}

func TestLoadManifest_Rejections(t *testing.T) {
	cases := []struct {
		name string
		path string
		body string
		want string
	}{
		{
			name: "unsupported extension",
			path: "batch.toml",
			body: `anything`,
			want: "unsupported manifest format",
		},
		{
			name: "empty list",
			path: "batch.json",
			body: `{"properties": []}`,
			want: "no properties",
		},
		{
			name: "missing property id",
			path: "batch.json",
			body: `{"properties": [{"inspection": "a.txt", "thermal": "b.txt"}]}`,
			want: "propertyId is required",
		},
		{
			name: "missing thermal path",
			path: "batch.json",
			body: `{"properties": [{"propertyId": "P1", "inspection": "a.txt"}]}`,
			want: "paths are required",
		},
		{
			name: "duplicate property id",
			path: "batch.json",
			body: `{"properties": [{"propertyId": "P1", "inspection": "a.txt", "thermal": "b.txt"}, {"propertyId": "P1", "inspection": "c.txt", "thermal": "d.txt"}]}`,
			want: "duplicate property id",
		},
		{
			name: "malformed json",
			path: "batch.json",
			body: `{"properties": [`,
			want: "parse manifest",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tc.path, []byte(tc.body), 0o644))

			_, err := LoadManifest(fs, tc.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadManifest(fs, "nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read manifest")
}
