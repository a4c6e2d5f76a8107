package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicedroplab/voicedrop/internal/config"
	"github.com/voicedroplab/voicedrop/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	cfg.Recording.Backend = "arecord"
	cfg.Recording.Directory = t.TempDir()
	cfg.Notify.Desktop = false
	return cfg
}

func TestGetStatus_Initial(t *testing.T) {
	svc := New(testConfig(t))
	defer svc.Close()

	status := svc.GetStatus()
	if status.Session.State != session.StateIdle {
		t.Errorf("session state = %s, want IDLE", status.Session.State)
	}
	if status.UploadsActive != 0 {
		t.Errorf("uploads active = %d, want 0", status.UploadsActive)
	}
	if !status.Connected {
		t.Error("connected = false, want true before any probe")
	}
	if status.LastError != "" {
		t.Errorf("last error = %q, want empty", status.LastError)
	}
}

func TestStartRecording_InvalidServerURL(t *testing.T) {
	svc := New(testConfig(t))
	defer svc.Close()

	if err := svc.StartRecording("", "", "", "not a url"); err == nil {
		t.Fatal("StartRecording = nil, want error for invalid URL")
	}
	if svc.GetLastError() == "" {
		t.Error("last error not recorded")
	}
}

func TestCheckServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := New(testConfig(t))
	defer svc.Close()

	if err := svc.CheckServer(context.Background(), srv.URL); err != nil {
		t.Errorf("CheckServer = %v, want nil", err)
	}
}

func TestCheckServer_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := New(testConfig(t))
	defer svc.Close()

	if err := svc.CheckServer(context.Background(), srv.URL); err == nil {
		t.Error("CheckServer = nil, want error for non-200 status")
	}

	if err := svc.CheckServer(context.Background(), "not a url"); err == nil {
		t.Error("CheckServer = nil, want error for invalid URL")
	}
}
