package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/museumlab/artsearch/internal/db"
)

func TestLRU_RoundTrip(t *testing.T) {
	c := NewLRU(4, time.Minute)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set(ctx, "k", []byte("v"), 0)
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU(2, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)
	c.Set(ctx, "c", []byte("3"), 0)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("oldest entry must be evicted at capacity")
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("newest entry must survive")
	}
}

type fakeKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[key] = value
	return nil
}

func TestKV_RoundTrip(t *testing.T) {
	c := NewKV(&fakeKV{}, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestKV_StoreFailureIsAMiss(t *testing.T) {
	c := NewKV(&fakeKV{getErr: errors.New("down")}, zap.NewNop())

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("store failure must degrade to a miss")
	}
}
