package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCall(t *testing.T) {
	t.Run("params and inline body", func(t *testing.T) {
		call, err := buildCall("Pod", "create", "v1",
			[]string{"namespace=default", "labelSelector=app=web"},
			`{"metadata":{"name":"web-0"}}`)
		require.NoError(t, err)

		assert.Equal(t, "Pod", call.Kind)
		assert.Equal(t, "create", call.Action)
		assert.Equal(t, "v1", call.Version)
		assert.Equal(t, "default", call.Params["namespace"])
		// values may themselves contain '='
		assert.Equal(t, "app=web", call.Params["labelSelector"])

		body, ok := call.Params["body"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, body, "metadata")
	})

	t.Run("body from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pod.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"kind":"Pod"}`), 0o600))

		call, err := buildCall("Pod", "create", "", []string{"namespace=default"}, "@"+path)
		require.NoError(t, err)

		body, ok := call.Params["body"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Pod", body["kind"])
	})

	t.Run("no params yields nil map", func(t *testing.T) {
		call, err := buildCall("Pod", "list", "", nil, "")
		require.NoError(t, err)
		assert.Nil(t, call.Params)
	})

	t.Run("malformed param", func(t *testing.T) {
		_, err := buildCall("Pod", "get", "", []string{"namespace"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected name=value")
	})

	t.Run("invalid body json", func(t *testing.T) {
		_, err := buildCall("Pod", "create", "", nil, "{not json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})

	t.Run("missing body file", func(t *testing.T) {
		_, err := buildCall("Pod", "create", "", nil, "@"+filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestSplitGroupVersion(t *testing.T) {
	tests := []struct {
		input   string
		group   string
		version string
		wantErr bool
	}{
		{input: "tekton.dev/v1alpha1", group: "tekton.dev", version: "v1alpha1"},
		{input: "cert-manager.io/v1", group: "cert-manager.io", version: "v1"},
		{input: "tekton.dev", wantErr: true},
		{input: "/v1", wantErr: true},
		{input: "tekton.dev/", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			group, version, err := splitGroupVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.group, group)
			assert.Equal(t, tt.version, version)
		})
	}
}
