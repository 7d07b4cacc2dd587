package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"personal-brand-api/config"
	"personal-brand-api/logger"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	logger.Init()
	logger.Log.SetLevel(logrus.WarnLevel)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.JWT.AccessSecret = "access-secret"
	cfg.JWT.RefreshSecret = "refresh-secret"
	cfg.Admin.Email = "owner@example.com"
	return cfg
}

func TestNew_WiresRouter(t *testing.T) {
	database, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer database.Close()
	mock.ExpectPing()

	a, err := New(testConfig(t), database, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Janitor)

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_RejectsUnknownEmailProvider(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig(t)
	cfg.Email.Provider = "carrier-pigeon"
	_, err = New(cfg, database, nil)
	assert.Error(t, err)
}

func TestNew_RejectsMalformedTrustedProxy(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig(t)
	cfg.Server.TrustedProxies = []string{"10.0.0.0/33"}
	_, err = New(cfg, database, nil)
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--config", t.TempDir(), "hash-password", "s3cret-pass"})

		require.NoError(t, cmd.Execute())
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
	})

	t.Run("from stdin", func(t *testing.T) {
		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetIn(strings.NewReader("piped-pass\n"))
		cmd.SetArgs([]string{"--config", t.TempDir(), "hash-password"})

		require.NoError(t, cmd.Execute())
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("piped-pass")))
	})

	t.Run("empty", func(t *testing.T) {
		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader("\n"))
		cmd.SetArgs([]string{"--config", t.TempDir(), "hash-password"})

		assert.Error(t, cmd.Execute())
	})
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", t.TempDir(), "migrate", "down", "--steps", "0"})

	assert.EqualError(t, cmd.Execute(), "--steps must be positive")
}

func TestServe_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret

	err := Serve(t.Context(), cfg)
	assert.ErrorContains(t, err, "must differ")
}
