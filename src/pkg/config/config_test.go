package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Mailer struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"mailer"`
}

func TestReadConfigFile(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		target := sampleConfig{}
		target.Mailer.Port = 587

		e := ReadConfigFile(filepath.Join(t.TempDir(), "nope.json"), &target)

		assert.Nil(t, e)
		assert.Equal(t, 587, target.Mailer.Port)
	})

	t.Run("valid file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mailer":{"host":"smtp.example.com","port":465}}`), 0o644))

		target := sampleConfig{}
		e := ReadConfigFile(path, &target)

		require.Nil(t, e)
		assert.Equal(t, "smtp.example.com", target.Mailer.Host)
		assert.Equal(t, 465, target.Mailer.Port)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"mailer":`), 0o644))

		e := ReadConfigFile(path, &sampleConfig{})

		require.NotNil(t, e)
		assert.Equal(t, "unmarshal config file", e.Msg)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEST_SMTP_HOST", "mail.example.org")
	t.Setenv("TEST_SMTP_PORT", "2525")
	t.Setenv("TEST_SMTP_BAD_PORT", "twenty")
	t.Setenv("TEST_SMTP_DEBUG", "true")
	t.Setenv("TEST_EMAIL_TO", "a@example.org, ,b@example.org")

	host := "localhost"
	port := 587
	badPort := 25
	debug := false
	recipients := []string{"admin@example.org"}
	untouched := "keep"

	EnvString("TEST_SMTP_HOST", &host)
	EnvInt("TEST_SMTP_PORT", &port)
	EnvInt("TEST_SMTP_BAD_PORT", &badPort)
	EnvBool("TEST_SMTP_DEBUG", &debug)
	EnvList("TEST_EMAIL_TO", &recipients)
	EnvString("TEST_NOT_SET_ANYWHERE", &untouched)

	assert.Equal(t, "mail.example.org", host)
	assert.Equal(t, 2525, port)
	assert.Equal(t, 25, badPort)
	assert.True(t, debug)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, recipients)
	assert.Equal(t, "keep", untouched)
}

func TestCheckIfEnvVarsPresent(t *testing.T) {
	t.Setenv("TEST_PRESENT_VAR", "1")
	missing := CheckIfEnvVarsPresent("TEST_PRESENT_VAR", "TEST_ABSENT_VAR_XYZ")
	assert.Equal(t, []string{"TEST_ABSENT_VAR_XYZ"}, missing)
}

func TestPackageNameFromFunc(t *testing.T) {
	assert.Equal(t, "mailer", packageNameFromFunc("fuel-report/src/pkg/mailer.InitializeConfig"))
	assert.Equal(t, "config", GetPackageName())
}

func TestDescribeHidesSecrets(t *testing.T) {
	assert.Equal(t, "<6 chars hidden>", describe("SMTP_PASS", "secret"))
	assert.Equal(t, "smtp.example.com", describe("SMTP_HOST", "smtp.example.com"))
}
