package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmynk/debtledger/internal/storage"
	"github.com/mmynk/debtledger/internal/storage/memory"
)

func TestGetJSON(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	store.Set(ctx, "good", []byte(`["USD","EUR"]`))
	store.Set(ctx, "corrupt", []byte(`["USD",`))
	store.Set(ctx, "wrongShape", []byte(`{"a":1}`))

	def := []string{"DZD"}

	tests := []struct {
		key  string
		want []string
	}{
		{"good", []string{"USD", "EUR"}},
		{"missing", def},
		{"corrupt", def},
		{"wrongShape", def},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := storage.GetJSON(ctx, store, tt.key, def)
			if len(got) != len(tt.want) {
				t.Fatalf("GetJSON(%q) = %v, want %v", tt.key, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("GetJSON(%q)[%d] = %q, want %q", tt.key, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoad_ReadError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Set(ctx, storage.KeyPinEnabled, []byte(`not json`))

	_, ok, err := storage.Load[bool](ctx, store, storage.KeyPinEnabled)
	if ok {
		t.Error("expected ok=false for corrupt value")
	}
	var readErr *storage.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected *storage.ReadError, got %T (%v)", err, err)
	}
	if readErr.Key != storage.KeyPinEnabled {
		t.Errorf("ReadError.Key = %q, want %q", readErr.Key, storage.KeyPinEnabled)
	}
}

func TestLoad_BackendError(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.Close()

	got := storage.GetJSON(ctx, store, storage.KeyPin, "fallback")
	if got != "fallback" {
		t.Errorf("GetJSON on closed store = %q, want fallback", got)
	}
}

func TestSetJSON(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	if err := storage.SetJSON(ctx, store, storage.KeyPinEnabled, true); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	raw, ok, err := store.Get(ctx, storage.KeyPinEnabled)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(raw) != "true" {
		t.Errorf("stored %q, want %q", raw, "true")
	}
}
