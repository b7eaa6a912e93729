package credentials

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/igorsilveira/ticktock/pkg/store"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s.DB()
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(testDB(t), ""); err == nil {
		t.Fatal("expected error for empty master key")
	}
}

func TestSetAndGet(t *testing.T) {
	s, err := New(testDB(t), "test-master-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := s.Set(ctx, "gemini_api_key", "AIza-123456"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, err := s.Get(ctx, "gemini_api_key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "AIza-123456" {
		t.Errorf("Get = %q, want %q", val, "AIza-123456")
	}
}

func TestValueIsNotStoredInPlaintext(t *testing.T) {
	db := testDB(t)
	s, _ := New(db, "test-key")
	if err := s.Set(context.Background(), "gemini_api_key", "AIza-plain"); err != nil {
		t.Fatal(err)
	}

	var cred Credential
	if err := db.Where("name = ?", "gemini_api_key").First(&cred).Error; err != nil {
		t.Fatal(err)
	}
	if string(cred.EncryptedValue) == "AIza-plain" {
		t.Error("value stored unencrypted")
	}
}

func TestGetNotFound(t *testing.T) {
	s, _ := New(testDB(t), "test-key")
	_, err := s.Get(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsert(t *testing.T) {
	s, _ := New(testDB(t), "test-key")
	ctx := context.Background()

	if err := s.Set(ctx, "token", "old-value"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "token", "new-value"); err != nil {
		t.Fatal(err)
	}

	val, _ := s.Get(ctx, "token")
	if val != "new-value" {
		t.Errorf("Get after upsert = %q, want %q", val, "new-value")
	}
	names, _ := s.List(ctx)
	if len(names) != 1 {
		t.Errorf("names = %v, want one entry", names)
	}
}

func TestDelete(t *testing.T) {
	s, _ := New(testDB(t), "test-key")
	ctx := context.Background()

	_ = s.Set(ctx, "temp", "value")
	if err := s.Delete(ctx, "temp"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "temp"); err == nil {
		t.Fatal("expected error after delete")
	}
	if err := s.Delete(ctx, "temp"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s, _ := New(testDB(t), "test-key")
	ctx := context.Background()

	_ = s.Set(ctx, "b-key", "val")
	_ = s.Set(ctx, "a-key", "val")

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a-key" || names[1] != "b-key" {
		t.Errorf("names = %v", names)
	}
}

func TestWrongKeyCannotDecrypt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s1, _ := New(db, "key-one")
	_ = s1.Set(ctx, "secret", "plaintext")

	s2, _ := New(db, "key-two")
	if _, err := s2.Get(ctx, "secret"); err == nil {
		t.Fatal("expected decryption error with wrong key")
	}
}
