package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_UsesHomeOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv(EnvHome, dir)

	require.NoError(t, Initialize())

	assert.Equal(t, dir, ConfigDir)
	assert.Equal(t, filepath.Join(dir, "postcli.db"), DatabasePath)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), ConfigFile)
	assert.Equal(t, filepath.Join(dir, "postcli.log"), LogFile)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Empty(t, settings.APIURL)
	assert.Zero(t, settings.Timeout)
	assert.True(t, settings.HighlightEnabled())
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "apiUrl: https://api.example.com/\ntimeout: 15s\noutput: json\nhighlight: false\nmessageTimeout: 3s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/", settings.APIURL)
	assert.Equal(t, 15*time.Second, settings.Timeout)
	assert.Equal(t, "json", settings.Output)
	assert.False(t, settings.HighlightEnabled())
	assert.Equal(t, 3*time.Second, settings.MessageTimeout)
}

func TestLoad_RejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("apiUrl: [unterminated"), FilePermissions))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsNegativeTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: -1s\n"), FilePermissions))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid timeout")
}

func TestSettings_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	settings := &Settings{APIURL: "http://backend:8080", Output: "yaml"}
	require.NoError(t, settings.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, settings.APIURL, loaded.APIURL)
	assert.Equal(t, settings.Output, loaded.Output)
}

func TestResolveAPIURL_Precedence(t *testing.T) {
	settings := &Settings{APIURL: "http://from-file:1/"}

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins", flag: "http://from-flag:3", env: "http://from-env:2", want: "http://from-flag:3"},
		{name: "env over file", env: "http://from-env:2/", want: "http://from-env:2"},
		{name: "file when nothing else", want: "http://from-file:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPIURL, tt.env)
			assert.Equal(t, tt.want, settings.ResolveAPIURL(tt.flag))
		})
	}
}

func TestResolveAPIURL_Default(t *testing.T) {
	t.Setenv(EnvAPIURL, "")

	var nilSettings *Settings
	assert.Equal(t, DefaultAPIURL, nilSettings.ResolveAPIURL(""))
	assert.Equal(t, DefaultAPIURL, (&Settings{APIURL: "   "}).ResolveAPIURL(""))
}
