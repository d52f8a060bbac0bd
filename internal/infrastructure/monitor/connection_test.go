package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fastygo/focus/internal/infrastructure/buffer"
)

func TestRefreshAggregatesProbes(t *testing.T) {
	storeErr := errors.New("store down")
	var storeDown bool

	m := New([]Probe{
		{Name: "store", Critical: true, Check: func(context.Context) error {
			if storeDown {
				return storeErr
			}
			return nil
		}},
		PingProbe("blobs", false, func() error { return errors.New("blob file locked") }),
	}, nil, 0, nil)

	m.Refresh(context.Background())
	if !m.IsOnline() {
		t.Fatal("non-critical failure must not take the monitor offline")
	}
	status := m.GetStatus()
	if status.Probes["blobs"].Healthy || status.Probes["blobs"].Error == "" {
		t.Fatalf("blobs probe = %+v", status.Probes["blobs"])
	}

	storeDown = true
	m.Refresh(context.Background())
	if m.IsOnline() {
		t.Fatal("critical failure must take the monitor offline")
	}
	if got := m.GetStatus().Probes["store"].Error; got != storeErr.Error() {
		t.Fatalf("store error = %q", got)
	}
}

func TestRefreshCountsPendingSideEffects(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	defer store.Close()
	for _, item := range []buffer.Item{
		{ID: "s1", Entity: buffer.EntityStreak, UserID: "alice"},
		{ID: "s2", Entity: buffer.EntityStreak, UserID: "bob"},
		{ID: "b1", Entity: buffer.EntityBlob, UserID: "alice"},
	} {
		if err := store.Enqueue(item); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	m := New(nil, store, 0, nil)
	m.Refresh(context.Background())
	status := m.GetStatus()
	if !status.Buffer || status.BufferSize != 3 {
		t.Fatalf("buffer = %v size = %d, want reachable with 3", status.Buffer, status.BufferSize)
	}
	if status.Pending[buffer.EntityStreak] != 2 || status.Pending[buffer.EntityBlob] != 1 {
		t.Fatalf("pending = %v", status.Pending)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := New(nil, nil, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
	if !m.IsOnline() {
		t.Fatal("monitor without probes is online")
	}
}
