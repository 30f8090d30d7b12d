package invalidation

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-values/pkg/simplevalues/repo/memory"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

type fakeService struct {
	mu           sync.Mutex
	contents     []uuid.UUID
	contentTypes []string
}

func (f *fakeService) InvalidateContent(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, id)
}

func (f *fakeService) InvalidateContentType(alias string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentTypes = append(f.contentTypes, alias)
}

func (f *fakeService) invalidated() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.contents...)
}

func newHandler() (*Handler, *fakeService, *snapshot.Manager) {
	svc := &fakeService{}
	manager := snapshot.NewManager(memory.New(), nil)
	return NewHandler(svc, manager, nil), svc, manager
}

func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		n       Notification
		wantErr bool
	}{
		{name: "content", n: Notification{Kind: KindContent, ContentID: uuid.New()}},
		{name: "content without id", n: Notification{Kind: KindContent}, wantErr: true},
		{name: "content type", n: Notification{Kind: KindContentType, ContentType: "article"}},
		{name: "content type without alias", n: Notification{Kind: KindContentType}, wantErr: true},
		{name: "media", n: Notification{Kind: KindMedia, MediaKey: uuid.New()}},
		{name: "media without key", n: Notification{Kind: KindMedia}, wantErr: true},
		{name: "unknown", n: Notification{Kind: "everything"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, tt.n.Validate())
			} else {
				assert.NoError(t, tt.n.Validate())
			}
		})
	}
}

func TestHandler_Notify(t *testing.T) {
	h, svc, manager := newHandler()
	ctx := context.Background()
	id := uuid.New()

	first := manager.Current()
	require.NoError(t, h.Notify(ctx, Notification{Kind: KindContent, ContentID: id}))
	assert.Equal(t, []uuid.UUID{id}, svc.contents)
	assert.NotEqual(t, first.ID(), manager.Current().ID())

	second := manager.Current()
	require.NoError(t, h.Notify(ctx, Notification{Kind: KindMedia, MediaKey: uuid.New()}))
	assert.Len(t, svc.contents, 1)
	assert.NotEqual(t, second.ID(), manager.Current().ID())

	require.NoError(t, h.Notify(ctx, Notification{Kind: KindContentType, ContentType: "article"}))
	assert.Equal(t, []string{"article"}, svc.contentTypes)

	third := manager.Current()
	assert.Error(t, h.Notify(ctx, Notification{Kind: KindContent}))
	assert.Equal(t, third.ID(), manager.Current().ID())
}

func TestHandler_HandleMessage(t *testing.T) {
	h, svc, _ := newHandler()
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, h.HandleMessage(ctx, `{"kind":"content","content_id":"`+id.String()+`"}`))
	assert.Equal(t, []uuid.UUID{id}, svc.contents)

	assert.Error(t, h.HandleMessage(ctx, `not json`))
}

func TestRedis_PublishSubscribe(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis tests")
	}
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	channel := "simple-values-test:" + uuid.New().String()
	h, svc, _ := newHandler()
	sub := NewSubscriber(client, channel, h, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	pub := NewPublisher(client, channel)
	id := uuid.New()

	// The subscription may not be active yet; publish until it is seen
	require.Eventually(t, func() bool {
		require.NoError(t, pub.Notify(context.Background(), Notification{Kind: KindContent, ContentID: id}))
		return len(svc.invalidated()) > 0
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, id, svc.invalidated()[0])

	cancel()
	assert.NoError(t, <-done)
}
