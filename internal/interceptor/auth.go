package interceptor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// AuthConfig selects exactly one credential mechanism for a client, plus an
// independent insecure-TLS flag. The zero value means unauthenticated
// operation, which is defined behavior rather than an error.
type AuthConfig struct {
	// Token is an explicit bearer token.
	Token string

	// TokenSource produces a fresh token for every request, enabling
	// rotation and refresh. Ranked below an explicit Token.
	TokenSource oauth2.TokenSource

	// Username and Password select basic auth.
	Username string
	Password string

	// Client certificate material as filesystem paths.
	ClientCertFile string
	ClientKeyFile  string
	CAFile         string

	// Client certificate material as inline base64-encoded PEM, the form
	// kubeconfig files embed it in.
	ClientCertData string
	ClientKeyData  string
	CAData         string

	// Insecure disables TLS certificate verification for self-signed
	// endpoints. Orthogonal to the credential mechanism.
	Insecure bool
}

// hasClientCert reports whether certificate credentials are configured in
// either form.
func (c AuthConfig) hasClientCert() bool {
	return (c.ClientCertFile != "" && c.ClientKeyFile != "") ||
		(c.ClientCertData != "" && c.ClientKeyData != "")
}

// NewAuth builds the authentication stage. The active mechanism is fixed at
// construction by priority: bearer token, then token source, then basic
// auth; certificate credentials live in the TLS config, not in headers, and
// an empty config yields a stage that passes requests through untouched.
func NewAuth(cfg AuthConfig) Interceptor {
	switch {
	case cfg.Token != "":
		token := cfg.Token
		return Func(func(_ context.Context, exch *Exchange) error {
			exch.Request.Header.Set("Authorization", "Bearer "+token)
			return nil
		})
	case cfg.TokenSource != nil:
		source := cfg.TokenSource
		return Func(func(_ context.Context, exch *Exchange) error {
			token, err := source.Token()
			if err != nil {
				return fmt.Errorf("failed to obtain token: %w", err)
			}
			exch.Request.Header.Set("Authorization", token.Type()+" "+token.AccessToken)
			return nil
		})
	case cfg.Username != "":
		user, pass := cfg.Username, cfg.Password
		return Func(func(_ context.Context, exch *Exchange) error {
			exch.Request.Header.Set("Authorization", "Basic "+
				base64.StdEncoding.EncodeToString([]byte(user+":"+pass)))
			return nil
		})
	default:
		return Func(func(context.Context, *Exchange) error { return nil })
	}
}

// TLSConfig builds the transport TLS settings from the certificate material
// and the insecure flag. Returns nil when nothing TLS-related is configured.
func (c AuthConfig) TLSConfig() (*tls.Config, error) {
	if !c.hasClientCert() && c.CAFile == "" && c.CAData == "" && !c.Insecure {
		return nil, nil
	}

	tlsCfg := &tls.Config{InsecureSkipVerify: c.Insecure} //nolint:gosec // explicit opt-in for self-signed endpoints

	caPEM, err := pemBytes(c.CAFile, c.CAData)
	if err != nil {
		return nil, fmt.Errorf("failed to load CA certificate: %w", err)
	}
	if caPEM != nil {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("CA certificate contains no valid PEM data")
		}
		tlsCfg.RootCAs = pool
	}

	if c.hasClientCert() {
		certPEM, err := pemBytes(c.ClientCertFile, c.ClientCertData)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		keyPEM, err := pemBytes(c.ClientKeyFile, c.ClientKeyData)
		if err != nil {
			return nil, fmt.Errorf("failed to load client key: %w", err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("invalid client certificate pair: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// pemBytes resolves certificate material from a file path or an inline
// base64 blob; the file wins when both are set.
func pemBytes(file, inline string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	if inline == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(inline)
}
