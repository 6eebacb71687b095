package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelTypes_KeepsOrder(t *testing.T) {
	mt, err := ParseModelTypes([]byte(`{
		"sdxl": ["sdxl", "pony"],
		"flux": ["flux"],
		"sd15": [],
		"flux": ["flux", "flux1"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"sdxl", "flux", "sd15"}, mt.Names())
	assert.Equal(t, []string{"flux", "flux1"}, mt.Patterns("flux"))
	assert.Empty(t, mt.Patterns("sd15"))
	assert.True(t, mt.Has("sd15"))
	assert.False(t, mt.Has("other"))
	assert.Equal(t, 3, mt.Len())
	assert.Equal(t, []string{"sdxl", "flux", "sd15", "other"}, mt.Choices())

	data, err := json.Marshal(mt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sdxl":["sdxl","pony"],"flux":["flux","flux1"],"sd15":[]}`, string(data))
	assert.Equal(t, `{"sdxl":["sdxl","pony"],"flux":["flux","flux1"],"sd15":[]}`, string(data))
}

func TestParseModelTypes_OtherNotDuplicated(t *testing.T) {
	mt, err := ParseModelTypes([]byte(`{"other":["misc"],"sdxl":["sdxl"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "sdxl"}, mt.Choices())
}

func TestParseModelTypes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not_json", `sdxl: [sdxl]`},
		{"array", `[["sdxl"]]`},
		{"string_value", `{"sdxl":"sdxl"}`},
		{"null_value", `{"sdxl":null}`},
		{"number_in_list", `{"sdxl":["sdxl", 1]}`},
		{"object_value", `{"sdxl":{"a":"b"}}`},
		{"truncated", `{"sdxl":["sdxl"]`},
		{"trailing", `{"sdxl":["sdxl"]} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModelTypes([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadModelTypes(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		p := filepath.Join(dir, "valid.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"sdxl":["sdxl"]}`), 0o644))

		mt, err := LoadModelTypes(p)
		require.NoError(t, err)
		assert.Equal(t, []string{"sdxl"}, mt.Names())
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadModelTypes(filepath.Join(dir, "missing.json"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrModelTypes))
		assert.True(t, errors.Is(err, os.ErrNotExist))

		var mtErr *ModelTypesError
		require.True(t, errors.As(err, &mtErr))
		assert.Equal(t, filepath.Join(dir, "missing.json"), mtErr.Path)
	})

	t.Run("bad_shape", func(t *testing.T) {
		p := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(p, []byte(`["sdxl"]`), 0o644))

		_, err := LoadModelTypes(p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrModelTypes))
		assert.Contains(t, err.Error(), "模型类型配置文件格式错误")
	})
}
