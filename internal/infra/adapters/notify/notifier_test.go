//go:build !integration

package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-billing/internal/config"
	"workforce-billing/internal/infra/worker"
)

func TestTelegramNotifier_Notify(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"ops","username":"ops_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, r.Form.Get("chat_id")+":"+r.Form.Get("text"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100123,"type":"group"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	n, err := NewTelegramNotifierWithEndpoint(
		config.TelegramConfig{Token: "123:abc", ChatID: -100123},
		srv.URL+"/bot%s/%s",
		srv.Client(),
	)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), "sweep: 3 checked"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"-100123:sweep: 3 checked"}, sent)
}

func TestTelegramNotifier_RequiresConfig(t *testing.T) {
	_, err := NewTelegramNotifier(config.TelegramConfig{ChatID: 1})
	assert.Error(t, err)
	_, err = NewTelegramNotifier(config.TelegramConfig{Token: "x"})
	assert.Error(t, err)
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, NewNoopNotifier(nil).Notify(context.Background(), "hello"))
}

type chanNotifier chan string

func (c chanNotifier) Notify(_ context.Context, text string) error {
	c <- text
	return nil
}

func TestAsyncNotifier(t *testing.T) {
	logger := zerolog.New(io.Discard)
	pool := worker.NewPool(1, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	out := make(chanNotifier, 1)
	n := NewAsyncNotifier(out, pool, time.Second)
	require.NoError(t, n.Notify(context.Background(), "sweep done"))

	select {
	case got := <-out:
		assert.Equal(t, "sweep done", got)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
}
