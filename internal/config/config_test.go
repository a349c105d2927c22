package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the env file at a missing path and clears variables the tests touch.
func isolate(t *testing.T, keys ...string) {
	t.Helper()
	t.Setenv(envPrefix+"ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, k := range keys {
		t.Setenv(envPrefix+k, "")
		require.NoError(t, os.Unsetenv(envPrefix+k))
	}
}

func TestLoad_DefaultsAndFlags(t *testing.T) {
	isolate(t, "JWT_KEY", "STORE", "BASE_URL", "ACCESS_TTL")

	c, err := Load([]string{"-jwt-key", "k", "-store", "memory", "-base-url", "https://cards.example/"})
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, StoreMemory, c.Store)
	assert.Equal(t, ObjectsLocal, c.Objects)
	assert.Equal(t, "https://cards.example", c.BaseURL)
	assert.Equal(t, 24*time.Hour, c.AccessTTL)

	codec, err := c.Codec()
	require.NoError(t, err)
	assert.Equal(t, 320, codec.Size)
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	t.Setenv(envPrefix+"JWT_KEY", "from-env")
	t.Setenv(envPrefix+"ADDR", ":7000")
	t.Setenv(envPrefix+"ACCESS_TTL", "2h")

	c, err := Load([]string{"-addr", ":7001"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.JWTKey)
	assert.Equal(t, ":7001", c.Addr)
	assert.Equal(t, 2*time.Hour, c.AccessTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	isolate(t, "JWT_KEY", "QR_DARK", "OBJECTS")
	path := filepath.Join(t.TempDir(), "vault.env")
	require.NoError(t, os.WriteFile(path, []byte("CARDVAULT_JWT_KEY=dotenv\nCARDVAULT_QR_DARK=#ffffff\nCARDVAULT_OBJECTS=s3\n"), 0o600))
	t.Setenv(envPrefix+"ENV_FILE", path)
	// already set variables win over the file
	t.Setenv(envPrefix+"QR_LIGHT", "#000000")

	c, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "dotenv", c.JWTKey)
	assert.Equal(t, "#ffffff", c.QRDark)
	assert.Equal(t, "#000000", c.QRLight)
	assert.Equal(t, ObjectsS3, c.Objects)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok := Config{
		Store: StoreMemory, JWTKey: "k", AccessTTL: time.Hour,
		BaseURL: "http://localhost:8080", Objects: ObjectsLocal, ObjectsDir: "data",
		QRSize: 320, QRDark: "#000000", QRLight: "#ffffff",
	}
	require.NoError(t, ok.Validate())

	cases := map[string]func(*Config){
		"no jwt key":       func(c *Config) { c.JWTKey = "" },
		"unknown store":    func(c *Config) { c.Store = "redis" },
		"postgres w/o dsn": func(c *Config) { c.Store = StorePostgres },
		"unknown objects":  func(c *Config) { c.Objects = "gcs" },
		"s3 w/o bucket":    func(c *Config) { c.Objects = ObjectsS3; c.S3.Endpoint = "minio:9000" },
		"relative base":    func(c *Config) { c.BaseURL = "/cards" },
		"ftp base":         func(c *Config) { c.BaseURL = "ftp://x" },
		"bad colour":       func(c *Config) { c.QRDark = "black" },
		"tiny qr":          func(c *Config) { c.QRSize = 5 },
		"half tls":         func(c *Config) { c.TLSCert = "cert.pem" },
		"zero ttl":         func(c *Config) { c.AccessTTL = 0 },
	}
	for name, mut := range cases {
		c := ok
		mut(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestLoad_BadFlag(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"-no-such-flag"})
	require.Error(t, err)
}
