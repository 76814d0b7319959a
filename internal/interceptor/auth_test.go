package interceptor

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func runAuth(t *testing.T, cfg AuthConfig) http.Header {
	t.Helper()
	exch := &Exchange{Request: &Request{Header: make(http.Header)}}
	require.NoError(t, NewAuth(cfg).Process(context.Background(), exch))
	return exch.Request.Header
}

func TestNewAuth(t *testing.T) {
	tests := []struct {
		name string
		cfg  AuthConfig
		want string
	}{
		{
			name: "bearer token",
			cfg:  AuthConfig{Token: "abc123"},
			want: "Bearer abc123",
		},
		{
			name: "basic auth",
			cfg:  AuthConfig{Username: "admin", Password: "s3cret"},
			want: "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:s3cret")),
		},
		{
			name: "token outranks token source",
			cfg: AuthConfig{
				Token:       "explicit",
				TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fromsource"}),
			},
			want: "Bearer explicit",
		},
		{
			name: "token source outranks basic auth",
			cfg: AuthConfig{
				TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "fromsource"}),
				Username:    "admin",
				Password:    "s3cret",
			},
			want: "Bearer fromsource",
		},
		{
			name: "empty config adds nothing",
			cfg:  AuthConfig{},
			want: "",
		},
		{
			name: "insecure alone adds nothing",
			cfg:  AuthConfig{Insecure: true},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := runAuth(t, tt.cfg)
			assert.Equal(t, tt.want, header.Get("Authorization"))
		})
	}
}

// countingTokenSource hands out a fresh token on every call.
type countingTokenSource struct {
	calls int
}

func (s *countingTokenSource) Token() (*oauth2.Token, error) {
	s.calls++
	return &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"}, nil
}

func TestNewAuth_TokenSourcePerRequest(t *testing.T) {
	source := &countingTokenSource{}
	auth := NewAuth(AuthConfig{TokenSource: source})

	for i := 0; i < 3; i++ {
		exch := &Exchange{Request: &Request{Header: make(http.Header)}}
		require.NoError(t, auth.Process(context.Background(), exch))
		assert.Equal(t, "Bearer tok", exch.Request.Header.Get("Authorization"))
	}
	assert.Equal(t, 3, source.calls)
}

type failingTokenSource struct{ err error }

func (s failingTokenSource) Token() (*oauth2.Token, error) { return nil, s.err }

func TestNewAuth_TokenSourceFailure(t *testing.T) {
	boom := errors.New("idp unreachable")
	auth := NewAuth(AuthConfig{TokenSource: failingTokenSource{err: boom}})

	exch := &Exchange{Request: &Request{Header: make(http.Header)}}
	err := auth.Process(context.Background(), exch)
	assert.ErrorIs(t, err, boom)
}

// testKeyPair generates a self-signed certificate and returns both halves as
// PEM.
func testKeyPair(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "kubecall-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func TestTLSConfig(t *testing.T) {
	certPEM, keyPEM := testKeyPair(t)

	t.Run("nothing configured yields nil", func(t *testing.T) {
		cfg, err := AuthConfig{Token: "abc"}.TLSConfig()
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("insecure flag", func(t *testing.T) {
		cfg, err := AuthConfig{Insecure: true}.TLSConfig()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.True(t, cfg.InsecureSkipVerify)
	})

	t.Run("ca from inline data", func(t *testing.T) {
		cfg, err := AuthConfig{CAData: base64.StdEncoding.EncodeToString(certPEM)}.TLSConfig()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.NotNil(t, cfg.RootCAs)
	})

	t.Run("client cert from files", func(t *testing.T) {
		dir := t.TempDir()
		certFile := filepath.Join(dir, "client.crt")
		keyFile := filepath.Join(dir, "client.key")
		require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
		require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))

		cfg, err := AuthConfig{ClientCertFile: certFile, ClientKeyFile: keyFile}.TLSConfig()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("client cert from inline data", func(t *testing.T) {
		cfg, err := AuthConfig{
			ClientCertData: base64.StdEncoding.EncodeToString(certPEM),
			ClientKeyData:  base64.StdEncoding.EncodeToString(keyPEM),
		}.TLSConfig()
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("invalid ca data", func(t *testing.T) {
		_, err := AuthConfig{CAData: base64.StdEncoding.EncodeToString([]byte("not pem"))}.TLSConfig()
		assert.Error(t, err)
	})

	t.Run("missing cert file", func(t *testing.T) {
		_, err := AuthConfig{
			ClientCertFile: filepath.Join(t.TempDir(), "absent.crt"),
			ClientKeyFile:  filepath.Join(t.TempDir(), "absent.key"),
		}.TLSConfig()
		assert.Error(t, err)
	})
}
