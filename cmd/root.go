package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubecall/kubecall/internal/client"
	"github.com/kubecall/kubecall/internal/interceptor"
)

// rootCmd represents the base command for the kubecall application.
var rootCmd = &cobra.Command{
	Use:   "kubecall",
	Short: "Schema-driven Kubernetes API client",
	Long: `kubecall turns a cluster's OpenAPI document into a registry of callable
actions and invokes them generically: name a kind and an action verb instead
of memorizing paths and groups. The registry can be extended at runtime to
cover CustomResourceDefinitions the static document does not know about.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// connection flags shared by every command that builds a client.
var (
	flagConfig     string
	flagKubeconfig string
	flagContext    string
	flagHost       string
	flagToken      string
	flagUsername   string
	flagPassword   string
	flagClientCert string
	flagClientKey  string
	flagCACert     string
	flagInsecure   bool
	flagAPIs       []string
	flagOffline    bool
	flagExtend     []string
	flagVerbose    bool
)

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "kubecall version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error itself; the exit code signals failure.
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to a kubecall config file (YAML or JSON)")
	pf.StringVar(&flagKubeconfig, "kubeconfig", "", "path to a kubeconfig file to derive connection settings from")
	pf.StringVar(&flagContext, "context", "", "kubeconfig context to use (default: current context)")
	pf.StringVar(&flagHost, "host", "", "API server base URL")
	pf.StringVar(&flagToken, "token", "", "bearer token")
	pf.StringVar(&flagUsername, "username", "", "basic auth username")
	pf.StringVar(&flagPassword, "password", "", "basic auth password")
	pf.StringVar(&flagClientCert, "client-cert", "", "path to a client certificate file")
	pf.StringVar(&flagClientKey, "client-key", "", "path to a client key file")
	pf.StringVar(&flagCACert, "ca-cert", "", "path to a CA certificate file")
	pf.BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")
	pf.StringSliceVar(&flagAPIs, "api", nil, "API-group selectors to retain (default: built-in list)")
	pf.BoolVar(&flagOffline, "offline", false, "disable discovery and use the bundled schema document")
	pf.StringSliceVar(&flagExtend, "extend", nil, "extend the registry with a live group/version (e.g. tekton.dev/v1alpha1)")
	pf.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(newExploreCmd())
	rootCmd.AddCommand(newInvokeCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

// loadConfig assembles the client configuration from the config file, the
// kubeconfig and the flags, in increasing precedence.
func loadConfig() (*client.Config, error) {
	cfg := &client.Config{}
	switch {
	case flagConfig != "":
		loaded, err := client.LoadConfigFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case flagKubeconfig != "":
		loaded, err := client.FromKubeconfig(flagKubeconfig, flagContext)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagToken != "" {
		cfg.Auth = interceptor.AuthConfig{Token: flagToken, Insecure: cfg.Auth.Insecure}
	}
	if flagUsername != "" {
		cfg.Auth = interceptor.AuthConfig{Username: flagUsername, Password: flagPassword, Insecure: cfg.Auth.Insecure}
	}
	if flagClientCert != "" {
		cfg.Auth.ClientCertFile = flagClientCert
		cfg.Auth.ClientKeyFile = flagClientKey
	}
	if flagCACert != "" {
		cfg.Auth.CAFile = flagCACert
	}
	if flagInsecure {
		cfg.Auth.Insecure = true
	}
	if len(flagAPIs) > 0 {
		cfg.APIGroups = flagAPIs
	}
	if flagOffline {
		cfg.DiscoveryDisabled = true
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, nil
}

// newClient builds a client from the effective configuration and applies any
// requested registry extensions.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cmd.Context(), *cfg)
	if err != nil {
		return nil, err
	}
	for _, gv := range flagExtend {
		group, version, err := splitGroupVersion(gv)
		if err != nil {
			return nil, err
		}
		c, err = c.Extend(cmd.Context(), group, version)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}
