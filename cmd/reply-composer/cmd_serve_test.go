package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shineum/reply-composer/internal/config"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		HTTP: config.HTTPConfig{Listen: "127.0.0.1:0"},
		Intake: config.IntakeConfig{
			Enabled:  true,
			Listen:   "127.0.0.1:0",
			Hostname: "localhost",
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, &fakeProvider{}) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}

func TestRunServe_ListenError(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Listen: "not-an-address"}}

	err := runServe(context.Background(), cfg, &fakeProvider{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestRunServe_MissingTemplateFile(t *testing.T) {
	cfg := &config.Config{
		HTTP:     config.HTTPConfig{Listen: "127.0.0.1:0"},
		Template: config.TemplateConfig{File: "/nonexistent/reply.txt"},
	}

	err := runServe(context.Background(), cfg, &fakeProvider{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read template file")
}
