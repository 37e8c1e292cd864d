package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func TestPost_Delivered(t *testing.T) {
	var (
		gotType   string
		gotSecret string
		gotBody   map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("X-Event-Type")
		gotSecret = r.Header.Get("X-Webhook-Secret")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "s3cret", time.Second, logger.Nop())
	err := c.Post(context.Background(), "appointment.reminder.v1", map[string]string{"appointment_id": "a1"})
	require.NoError(t, err)

	assert.Equal(t, "appointment.reminder.v1", gotType)
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "a1", gotBody["appointment_id"])
}

func TestPost_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "rejected", status: http.StatusUnprocessableEntity, body: `{"code":422,"message":"bad email"}`, wantErr: ErrRejected},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", wantErr: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second, logger.Nop())
			err := c.Post(context.Background(), "e", struct{}{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPost_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", 200*time.Millisecond, logger.Nop())
	err := c.Post(context.Background(), "e", struct{}{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
