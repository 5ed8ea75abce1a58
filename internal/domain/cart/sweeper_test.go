package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSweeper_Run(t *testing.T) {
	repo := newMemCartRepo()
	repo.byUser["stale"] = New("stale", testNow.Add(-2*TTL))
	repo.byUser["fresh"] = New("fresh", testNow)

	sw := NewSweeper(repo, time.Millisecond, zaptest.NewLogger(t))
	sw.now = func() time.Time { return testNow }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, sw.Run(ctx))

	assert.NotContains(t, repo.byUser, "stale")
	assert.Contains(t, repo.byUser, "fresh")
}
