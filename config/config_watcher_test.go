package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConfigWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelgate.yaml")
	writeConfigFile(t, path, "server:\n  port: 8080\n")

	cw, err := NewConfigWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer cw.Close()

	assert.Equal(t, 8080, cw.GetCurrentConfig().Server.Port)

	updates := cw.Subscribe()
	writeConfigFile(t, path, "server:\n  port: 9090\n")

	select {
	case next := <-updates:
		assert.Equal(t, 9090, next.Server.Port)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
	assert.Equal(t, 9090, cw.GetCurrentConfig().Server.Port)
}

func TestConfigWatcherKeepsLastGoodConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelgate.yaml")
	writeConfigFile(t, path, "server:\n  port: 8080\n")

	cw, err := NewConfigWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer cw.Close()

	// An invalid rewrite is rejected; the previous config stays active.
	writeConfigFile(t, path, "server:\n  port: 999999\n")

	require.Never(t, func() bool {
		return cw.GetCurrentConfig().Server.Port != 8080
	}, 500*time.Millisecond, 50*time.Millisecond)
}

func TestConfigWatcherConcurrentSubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelgate.yaml")
	writeConfigFile(t, path, "server:\n  port: 8080\n")

	cw, err := NewConfigWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer cw.Close()

	// Subscribing while the watch goroutine delivers reloads must not race
	// on the subscriber list.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			cw.Subscribe()
		}
	}()
	for i := 0; i < 20; i++ {
		writeConfigFile(t, path, "server:\n  port: 9090\n")
		time.Sleep(5 * time.Millisecond)
	}
	<-done

	require.Eventually(t, func() bool {
		return cw.GetCurrentConfig().Server.Port == 9090
	}, 2*time.Second, 50*time.Millisecond)
}

func TestConfigWatcherMissingFile(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	require.Error(t, err)
}
