package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/astra-care/internal/config"
)

func TestConcurrentSnapshotsKeepOneStream(t *testing.T) {
	a := New(config.ClientConfig{Stream: true}, nil, nil, nil)
	a.Session.mu.Lock()
	a.Session.token = "tok"
	a.Session.mu.Unlock()

	var mu sync.Mutex
	var started []context.Context
	a.runStream = func(ctx context.Context, subject string) error {
		mu.Lock()
		started = append(started, ctx)
		mu.Unlock()
		<-ctx.Done()
		return nil
	}
	live := func() (n, total int) {
		mu.Lock()
		defer mu.Unlock()
		for _, ctx := range started {
			if ctx.Err() == nil {
				n++
			}
		}
		return n, len(started)
	}

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subject := "AST-001"
			if i%2 == 1 {
				subject = "AST-002"
			}
			a.onSnapshot(Snapshot{Subject: subject})
		}()
	}
	wg.Wait()
	a.onSnapshot(Snapshot{Subject: "AST-003"})

	require.Eventually(t, func() bool {
		n, total := live()
		return n == 1 && total > 0
	}, 2*time.Second, 5*time.Millisecond)
	a.mu.Lock()
	assert.Equal(t, "AST-003", a.streamFor)
	a.mu.Unlock()

	a.Close()
	require.Eventually(t, func() bool {
		n, _ := live()
		return n == 0
	}, 2*time.Second, 5*time.Millisecond)
}
