package instagram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpzouying/instagram-unlike/unlike"
)

func TestIsLikesURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "点赞记录页",
			url:  "https://www.instagram.com/your_activity/interactions/likes/",
			want: true,
		},
		{
			name: "带查询参数",
			url:  "https://www.instagram.com/your_activity/interactions/likes/?hl=de",
			want: true,
		},
		{
			name: "评论记录页",
			url:  "https://www.instagram.com/your_activity/interactions/comments/",
			want: false,
		},
		{
			name: "首页",
			url:  "https://www.instagram.com/",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLikesURL(tt.url); got != tt.want {
				t.Errorf("IsLikesURL(%q) 期望: %v, 实际: %v", tt.url, tt.want, got)
			}
		})
	}
}

func TestSettleHonoursCancellation(t *testing.T) {
	var waited time.Duration
	p := &LikesPage{sleeper: unlike.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		waited = d
		return unlike.RealSleeper.Sleep(ctx, d)
	})}

	require.NoError(t, p.settle(context.Background()))
	assert.Equal(t, scrollSettle, waited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.settle(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), scrollSettle)
}
