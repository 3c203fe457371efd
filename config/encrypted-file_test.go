package config

import (
	"bytes"
	"errors"
	"path"
	"testing"
)

func TestEncryptedFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := &EncryptedFile{Dirname: dir, FileName: "secret.yaml", FullPath: path.Join(dir, "secret.yaml")}

	// A missing file is reported as FileNotFoundError so callers can create it.
	if _, err := f.Get(); !errors.As(err, &FileNotFoundError{}) {
		t.Fatal("expected FileNotFoundError for a missing file; got: ", err)
	}

	want := []byte("connections:\n  raw: dsn-with-password")
	if err := f.Set(want); err != nil {
		t.Fatal("unexpected error writing encrypted file: ", err)
	}
	got, err := f.Get()
	if err != nil {
		t.Fatal("unexpected error reading encrypted file: ", err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("round trip mismatch: expected = '%s'; got = '%s'", want, got)
	}
}
