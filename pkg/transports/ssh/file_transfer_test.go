package ssh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUploadFile(t *testing.T) {
	server := newTestSSHServer(t)
	client := connectTestClient(t, server)
	ctx := context.Background()

	localPath := filepath.Join(t.TempDir(), "get_type_schema.py")
	if err := os.WriteFile(localPath, []byte("print('{}')\n"), 0644); err != nil {
		t.Fatalf("failed to write local file: %v", err)
	}

	remotePath := filepath.ToSlash(filepath.Join(t.TempDir(), "nested", "dir", "get_type_schema.py"))
	if err := client.UploadFile(ctx, localPath, remotePath, 0755); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	data, err := os.ReadFile(remotePath)
	if err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}
	if string(data) != "print('{}')\n" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(remotePath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("expected mode 0755, got %v", info.Mode().Perm())
	}

	if err := VerifyUpload(ctx, client, localPath, remotePath); err != nil {
		t.Errorf("VerifyUpload: %v", err)
	}
}

func TestUploadDirectory(t *testing.T) {
	server := newTestSSHServer(t)
	client := connectTestClient(t, server)
	ctx := context.Background()

	localDir := t.TempDir()
	files := map[string]string{
		"get_type_schema.py":  "import sys\n",
		"lib/helpers.py":      "def f():\n    pass\n",
		"lib/data/types.json": "{}\n",
	}
	for name, content := range files {
		p := filepath.Join(localDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	remoteDir := filepath.ToSlash(filepath.Join(t.TempDir(), "scripts"))
	result, err := client.UploadDirectory(ctx, localDir, remoteDir)
	if err != nil {
		t.Fatalf("UploadDirectory: %v", err)
	}
	if result.Files != len(files) {
		t.Errorf("expected %d files, got %d", len(files), result.Files)
	}

	var total int64
	for name, content := range files {
		total += int64(len(content))
		data, err := os.ReadFile(filepath.Join(remoteDir, filepath.FromSlash(name)))
		if err != nil {
			t.Errorf("%s not uploaded: %v", name, err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s: unexpected content %q", name, data)
		}
	}
	if result.BytesTransferred != total {
		t.Errorf("expected %d bytes, got %d", total, result.BytesTransferred)
	}
}

func TestUploadWithoutConnection(t *testing.T) {
	server := newTestSSHServer(t)

	client, err := NewClient(server.testConfig())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	err = client.UploadFile(context.Background(), "/nonexistent", "/tmp/x", 0644)
	if te, ok := err.(*TransportError); !ok || te.Op != "get-client" {
		t.Errorf("expected get-client TransportError, got %v", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	server := newTestSSHServer(t)
	client := connectTestClient(t, server)

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	_ = os.WriteFile(a, []byte("one"), 0644)
	_ = os.WriteFile(b, []byte("two"), 0644)

	if err := VerifyUpload(context.Background(), client, a, filepath.ToSlash(b)); err == nil {
		t.Error("expected checksum mismatch")
	}

	want, _ := LocalChecksum(a)
	got, err := client.ComputeChecksum(context.Background(), filepath.ToSlash(a))
	if err != nil {
		t.Fatalf("ComputeChecksum: %v", err)
	}
	if got != want {
		t.Errorf("checksum = %s, want %s", got, want)
	}
}
