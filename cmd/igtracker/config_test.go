package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igtracker/internal/scheduler"
	"igtracker/pkg/config"
	errs "igtracker/pkg/errors"
)

func TestExampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "igtracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0600))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Instagram.MaxItems)
	assert.Equal(t, 45*time.Second, cfg.Inference.CallTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Schedule.JobTimeout)
	assert.Equal(t, config.DefaultConfig().Storage.Path, cfg.Storage.Path)
	assert.NoError(t, scheduler.ValidateSchedule(cfg.Schedule.Cron))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
	assert.Equal(t, "abcd...wxyz", maskSecret("abcdefghijklmnopqrstuvwxyz"))
}

func TestSkipConfig(t *testing.T) {
	assert.True(t, skipConfig(loginCmd))
	assert.True(t, skipConfig(showCmd))
	assert.True(t, skipConfig(versionCmd))
	assert.False(t, skipConfig(trackCmd))
	assert.False(t, skipConfig(watchCmd))
}

func TestDescribeTrackError(t *testing.T) {
	assert.Equal(t, assert.AnError, describeTrackError(assert.AnError))

	authErr := errs.Wrap(errs.ErrorTypeSourceUnavailable, "fetch profile",
		&errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication required", Code: 401})
	err := describeTrackError(authErr)
	assert.Contains(t, err.Error(), "igtracker auth login")
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}
