package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/playshelf/internal/domain"
)

func webhookServer(t *testing.T, status int) (*httptest.Server, <-chan discordWebhook) {
	t.Helper()
	received := make(chan discordWebhook, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload discordWebhook
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func TestDiscordService_SendSuccess(t *testing.T) {
	srv, received := webhookServer(t, http.StatusNoContent)

	svc := NewDiscordService(zerolog.Nop(), srv.URL)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := svc.SendSuccess(context.Background(), domain.Statistics{
		Origin:       domain.OriginSteam,
		Group:        "steam",
		Scanned:      12,
		Added:        2,
		Updated:      10,
		WithCover:    9,
		CoverPercent: 75,
		TotalItems:   40,
	})
	require.NoError(t, err)

	payload := <-received
	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]
	assert.Equal(t, "Playshelf steam scan completed", embed.Title)
	assert.Equal(t, "2024-01-02T03:04:05Z", embed.Timestamp)
	assert.Equal(t, "12", embed.Fields[0].Value)
	assert.Equal(t, "2 added, 10 updated, 0 removed", embed.Fields[1].Value)
	assert.Equal(t, "9 (75.0%)", embed.Fields[2].Value)
}

func TestDiscordService_SendError(t *testing.T) {
	srv, received := webhookServer(t, http.StatusOK)

	svc := NewDiscordService(zerolog.Nop(), srv.URL)
	scanErr := domain.NewScanError(domain.OriginEmulator, errors.New("boom"), "could not read rom folder")
	require.NoError(t, svc.SendError(context.Background(), scanErr))

	payload := <-received
	assert.Equal(t, "Playshelf emulator scan failed", payload.Embeds[0].Title)
	assert.Contains(t, payload.Embeds[0].Description, "could not read rom folder")
}

func TestDiscordService_BadStatus(t *testing.T) {
	srv, _ := webhookServer(t, http.StatusBadRequest)

	err := NewDiscordService(zerolog.Nop(), srv.URL).SendError(context.Background(), errors.New("x"))
	assert.Error(t, err)
}

func TestService_WithoutWebhook(t *testing.T) {
	svc := NewService(zerolog.Nop(), "")
	assert.NoError(t, svc.SendSuccess(context.Background(), domain.Statistics{}))
	assert.NoError(t, svc.SendError(context.Background(), errors.New("x")))
}
