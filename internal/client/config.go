package client

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/trace"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/yaml"

	"github.com/kubecall/kubecall/internal/interceptor"
)

// Config holds everything needed to construct a Client. The zero value is
// not usable: Host is required.
type Config struct {
	// Host is the base URL of the API server.
	Host string

	// Auth selects the credential mechanism and TLS settings.
	Auth interceptor.AuthConfig

	// Interceptors are extra chain stages appended after authentication and
	// before the transport.
	Interceptors []interceptor.Interceptor

	// APIGroups is the list of API-group selectors retained from the schema
	// document. Empty means the built-in default list.
	APIGroups []string

	// DiscoveryDisabled forces offline mode: the bundled schema document is
	// used and no network round trip happens at construction.
	DiscoveryDisabled bool

	// HTTPClient overrides the transport HTTP client. When set, the TLS
	// settings derived from Auth are not applied to it.
	HTTPClient *http.Client

	// Logger receives structured construction and invocation logs.
	Logger *slog.Logger

	// Metrics, when set, records per-invocation counters and latencies.
	Metrics *interceptor.Metrics

	// Tracer, when set, wraps every invocation in a span.
	Tracer trace.Tracer
}

// fileConfig is the YAML/JSON shape of a configuration file. Field names
// follow the construction options; credential functions and extra
// interceptors cannot be expressed in a file.
type fileConfig struct {
	Host     string `json:"host"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`

	ClientCert string `json:"clientCert,omitempty"`
	ClientKey  string `json:"clientKey,omitempty"`
	CACert     string `json:"caCert,omitempty"`

	ClientCertificateData    string `json:"clientCertificateData,omitempty"`
	ClientKeyData            string `json:"clientKeyData,omitempty"`
	CertificateAuthorityData string `json:"certificateAuthorityData,omitempty"`

	Insecure  bool     `json:"insecure,omitempty"`
	APIs      []string `json:"apis,omitempty"`
	Discovery string   `json:"discovery,omitempty"`
}

// LoadConfigFile reads a YAML or JSON configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &Config{
		Host: fc.Host,
		Auth: interceptor.AuthConfig{
			Token:          fc.Token,
			Username:       fc.Username,
			Password:       fc.Password,
			ClientCertFile: fc.ClientCert,
			ClientKeyFile:  fc.ClientKey,
			CAFile:         fc.CACert,
			ClientCertData: fc.ClientCertificateData,
			ClientKeyData:  fc.ClientKeyData,
			CAData:         fc.CertificateAuthorityData,
			Insecure:       fc.Insecure,
		},
		APIGroups:         fc.APIs,
		DiscoveryDisabled: fc.Discovery == "disabled",
	}, nil
}

// FromKubeconfig derives a Config from a kubeconfig file, using the named
// context or the file's current context when contextName is empty.
func FromKubeconfig(path, contextName string) (*Config, error) {
	kc, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	if contextName == "" {
		contextName = kc.CurrentContext
	}
	kubeCtx, ok := kc.Contexts[contextName]
	if !ok {
		return nil, fmt.Errorf("context %q not found in kubeconfig", contextName)
	}
	cluster, ok := kc.Clusters[kubeCtx.Cluster]
	if !ok {
		return nil, fmt.Errorf("cluster %q not found in kubeconfig", kubeCtx.Cluster)
	}

	cfg := &Config{
		Host: cluster.Server,
		Auth: interceptor.AuthConfig{
			CAFile:   cluster.CertificateAuthority,
			CAData:   base64.StdEncoding.EncodeToString(cluster.CertificateAuthorityData),
			Insecure: cluster.InsecureSkipTLSVerify,
		},
	}
	if len(cluster.CertificateAuthorityData) == 0 {
		cfg.Auth.CAData = ""
	}

	if user, ok := kc.AuthInfos[kubeCtx.AuthInfo]; ok {
		cfg.Auth.Token = user.Token
		cfg.Auth.Username = user.Username
		cfg.Auth.Password = user.Password
		cfg.Auth.ClientCertFile = user.ClientCertificate
		cfg.Auth.ClientKeyFile = user.ClientKey
		if len(user.ClientCertificateData) > 0 {
			cfg.Auth.ClientCertData = base64.StdEncoding.EncodeToString(user.ClientCertificateData)
		}
		if len(user.ClientKeyData) > 0 {
			cfg.Auth.ClientKeyData = base64.StdEncoding.EncodeToString(user.ClientKeyData)
		}
	}
	return cfg, nil
}
