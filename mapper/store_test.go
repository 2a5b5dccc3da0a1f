package mapper_test

import (
	"testing"
	"time"

	"portolan"
	"portolan/mapper"
)

func TestStore(t *testing.T) {
	store := mapper.NewStore()

	if _, ok := store.Current(); ok {
		t.Fatal("empty store reported a snapshot")
	}

	first := portolan.Snapshot{Timestamp: time.Unix(1, 0), DockerAvailable: true}
	store.Publish(first)
	got, ok := store.Current()
	if !ok {
		t.Fatal("published snapshot not visible")
	}
	if !got.Timestamp.Equal(first.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, first.Timestamp)
	}

	second := portolan.Snapshot{Timestamp: time.Unix(2, 0)}
	store.Publish(second)
	got, _ = store.Current()
	if !got.Timestamp.Equal(second.Timestamp) {
		t.Errorf("timestamp = %v, want %v after replace", got.Timestamp, second.Timestamp)
	}
}
