package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stemsi/studyguide/internal/apiclient"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s := NewFileStore(path)

	creds, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if creds.Token != "" {
		t.Fatalf("missing file produced credentials: %+v", creds)
	}

	want := apiclient.Credentials{Token: "session_abc", Guest: true}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}

	got, err := NewFileStore(path).Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got != want {
		t.Fatalf("reloaded %+v, want %+v", got, want)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if got, _ := s.Load(ctx); got.Token != "" {
		t.Fatalf("credentials survived clear: %+v", got)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("corrupt file loaded without error")
	}
}
