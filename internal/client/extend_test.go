package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubecall/kubecall/internal/registry"
)

func TestExtend(t *testing.T) {
	c, log := newTestClient(t, nil)
	before := c.ActionCount()

	extended, err := c.Extend(context.Background(), "tekton.dev", "v1")
	require.NoError(t, err)

	// Task and ClusterTask from discovery, Pipeline from the CRD list; the
	// tasks/status subresource and the cert-manager.io CRD are skipped
	for _, kind := range []string{"Task", "ClusterTask", "Pipeline"} {
		assert.True(t, extended.registry.HasKind(kind), kind)
	}
	assert.False(t, extended.registry.HasKind("Certificate"))
	assert.Equal(t, before+30, extended.ActionCount())

	// the receiver is untouched
	assert.Equal(t, before, c.ActionCount())
	assert.False(t, c.registry.HasKind("Task"))

	// a synthesized action is callable end to end
	_, err = extended.Invoke(context.Background(), Call{
		Kind:   "Task",
		Action: "list",
		Params: map[string]any{"namespace": "default"},
	})
	require.NoError(t, err)
	req, _ := log.last()
	require.NotNil(t, req)
	assert.Equal(t, "/apis/tekton.dev/v1/namespaces/default/tasks", req.URL.Path)
}

func TestExtend_SkipsKnownKinds(t *testing.T) {
	c, _ := newTestClient(t, nil)

	extended, err := c.Extend(context.Background(), "tekton.dev", "v1")
	require.NoError(t, err)

	again, err := extended.Extend(context.Background(), "tekton.dev", "v1")
	require.NoError(t, err)
	assert.Equal(t, extended.ActionCount(), again.ActionCount())
}

func TestExtend_DiscoveryFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/openapi/v2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSchema))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(context.Background(), Config{Host: srv.URL, HTTPClient: srv.Client(), Logger: testLogger()})
	require.NoError(t, err)

	_, err = c.Extend(context.Background(), "tekton.dev", "v1")
	assert.Error(t, err)
}

func TestExtend_ToleratesCRDFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/openapi/v2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSchema))
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "APIVersions"}`))
	})
	mux.HandleFunc("/apis/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "APIGroupList"}`))
	})
	mux.HandleFunc("/apis/tekton.dev/v1/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"resources": [{"name": "tasks", "kind": "Task", "namespaced": true}]}`))
	})
	mux.HandleFunc("/apis/apiextensions.k8s.io/v1/customresourcedefinitions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(context.Background(), Config{Host: srv.URL, HTTPClient: srv.Client(), Logger: testLogger()})
	require.NoError(t, err)

	extended, err := c.Extend(context.Background(), "tekton.dev", "v1")
	require.NoError(t, err)
	assert.True(t, extended.registry.HasKind("Task"))
}

func TestSynthesizeActions(t *testing.T) {
	t.Run("namespaced", func(t *testing.T) {
		actions := synthesizeActions("tekton.dev", "v1", apiResource{Name: "tasks", Kind: "Task", Namespaced: true})
		require.Len(t, actions, 10)

		byVerb := make(map[registry.Verb]registry.Action)
		for _, a := range actions {
			byVerb[a.Verb] = a
			assert.Equal(t, "Task", a.Kind)
			assert.Equal(t, "tekton.dev", a.Group)
			assert.Equal(t, "v1", a.Version)
		}

		assert.Equal(t, "/apis/tekton.dev/v1/namespaces/{namespace}/tasks", byVerb[registry.VerbList].Path)
		assert.Equal(t, "/apis/tekton.dev/v1/namespaces/{namespace}/tasks/{name}", byVerb[registry.VerbGet].Path)
		assert.Equal(t, "POST", byVerb[registry.VerbCreate].Method)
		assert.Equal(t, "DELETE", byVerb[registry.VerbDeleteCollection].Method)
		assert.Equal(t, []string{"application/apply-patch+yaml"}, byVerb[registry.VerbApply].Consumes)
		assert.Equal(t, "createTektonDevV1Task", byVerb[registry.VerbCreate].ID)
	})

	t.Run("cluster scoped", func(t *testing.T) {
		actions := synthesizeActions("tekton.dev", "v1", apiResource{Name: "clustertasks", Kind: "ClusterTask"})
		require.Len(t, actions, 10)
		for _, a := range actions {
			assert.NotContains(t, a.Path, "{namespace}")
		}
	})
}

func TestMergeResources(t *testing.T) {
	merged := mergeResources(
		[]apiResource{{Name: "tasks", Kind: "Task"}},
		[]apiResource{{Name: "tasks", Kind: "task"}, {Name: "pipelines", Kind: "Pipeline"}},
	)
	require.Len(t, merged, 2)
	assert.Equal(t, "Task", merged[0].Kind)
	assert.Equal(t, "Pipeline", merged[1].Kind)
}

func TestCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "tekton.dev", want: "TektonDev"},
		{in: "cert-manager.io", want: "CertManagerIo"},
		{in: "v1", want: "V1"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, camel(tt.in), tt.in)
	}
}
