package webpush

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, timeout time.Duration) *Client {
	t.Helper()
	publicKey, privateKey, err := GenerateKeys()
	require.NoError(t, err)

	client, err := NewClient(Settings{
		VAPIDPublicKey:  publicKey,
		VAPIDPrivateKey: privateKey,
		Subject:         "mailto:push@portal.example.com",
		Timeout:         timeout,
	}, nil)
	require.NoError(t, err)
	return client
}

func newDevice(t *testing.T, endpoint string) Subscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	return Subscription{
		Endpoint: endpoint,
		P256dh:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
}

type capturedRequest struct {
	ttl           string
	urgency       string
	authorization string
	encoding      string
	bodyLen       int64
}

func newPushService(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	seen := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.Path, capturedRequest{
			ttl:           r.Header.Get("TTL"),
			urgency:       r.Header.Get("Urgency"),
			authorization: r.Header.Get("Authorization"),
			encoding:      r.Header.Get("Content-Encoding"),
			bodyLen:       r.ContentLength,
		})
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusCreated)
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Settings{VAPIDPublicKey: "pub", Subject: "mailto:a@b.c"}, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewClient(Settings{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestClassifyStatus(t *testing.T) {
	cases := map[int]Class{
		200: ClassSuccess,
		201: ClassSuccess,
		202: ClassSuccess,
		404: ClassExpired,
		410: ClassExpired,
		400: ClassOther,
		413: ClassOther,
		429: ClassOther,
		500: ClassOther,
		503: ClassOther,
	}
	for status, want := range cases {
		assert.Equal(t, want, ClassifyStatus(status), "status %d", status)
	}
}

func TestDeliverClassifiesResponses(t *testing.T) {
	srv, _ := newPushService(t)
	client := newTestClient(t, time.Second)
	message := []byte(`{"title":"New task","body":"Review PR #12"}`)

	tests := []struct {
		path   string
		class  Class
		status int
	}{
		{"/ok", ClassSuccess, http.StatusCreated},
		{"/gone", ClassExpired, http.StatusGone},
		{"/missing", ClassExpired, http.StatusNotFound},
		{"/throttled", ClassOther, http.StatusTooManyRequests},
		{"/broken", ClassOther, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, "/"), func(t *testing.T) {
			outcome := client.Deliver(context.Background(), newDevice(t, srv.URL+tt.path), message, Options{})
			assert.Equal(t, tt.class, outcome.Class)
			assert.Equal(t, tt.status, outcome.StatusCode)
			assert.Equal(t, tt.class == ClassSuccess, outcome.Success())
			if tt.class != ClassSuccess {
				assert.NotEmpty(t, outcome.Message)
			}
		})
	}
}

func TestDeliverSendsProtocolHeaders(t *testing.T) {
	srv, seen := newPushService(t)
	client := newTestClient(t, time.Second)

	outcome := client.Deliver(context.Background(), newDevice(t, srv.URL+"/ok"), []byte(`{"title":"x"}`), Options{})
	require.True(t, outcome.Success())

	v, ok := seen.Load("/ok")
	require.True(t, ok)
	req := v.(capturedRequest)
	assert.Equal(t, "3600", req.ttl)
	assert.Equal(t, "high", req.urgency)
	assert.True(t, strings.HasPrefix(req.authorization, "vapid t="), req.authorization)
	assert.Equal(t, "aes128gcm", req.encoding)
	assert.Greater(t, req.bodyLen, int64(0))
}

func TestDeliverHonoursPerCallOptions(t *testing.T) {
	srv, seen := newPushService(t)
	client := newTestClient(t, time.Second)

	outcome := client.Deliver(context.Background(), newDevice(t, srv.URL+"/ok"), []byte(`{}`), Options{TTL: 60, Urgency: "low"})
	require.True(t, outcome.Success())

	v, _ := seen.Load("/ok")
	req := v.(capturedRequest)
	assert.Equal(t, "60", req.ttl)
	assert.Equal(t, "low", req.urgency)
}

func TestDeliverTimeoutIsTransient(t *testing.T) {
	srv, _ := newPushService(t)
	client := newTestClient(t, 50*time.Millisecond)

	start := time.Now()
	outcome := client.Deliver(context.Background(), newDevice(t, srv.URL+"/slow"), []byte(`{}`), Options{})

	assert.Equal(t, ClassOther, outcome.Class)
	assert.Zero(t, outcome.StatusCode)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDeliverNetworkErrorIsTransient(t *testing.T) {
	srv, _ := newPushService(t)
	endpoint := srv.URL + "/ok"
	srv.Close()

	client := newTestClient(t, time.Second)
	outcome := client.Deliver(context.Background(), newDevice(t, endpoint), []byte(`{}`), Options{})

	assert.Equal(t, ClassOther, outcome.Class)
	assert.NotEmpty(t, outcome.Message)
}

func TestDeliverInvalidKeysIsTransient(t *testing.T) {
	srv, _ := newPushService(t)
	client := newTestClient(t, time.Second)

	outcome := client.Deliver(context.Background(), Subscription{Endpoint: srv.URL + "/ok", P256dh: "bogus", Auth: "bogus"}, []byte(`{}`), Options{})
	assert.Equal(t, ClassOther, outcome.Class)
}

func TestDeliverConcurrentUse(t *testing.T) {
	srv, _ := newPushService(t)
	client := newTestClient(t, time.Second)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 16)
	for i := range outcomes {
		path := "/ok"
		if i%4 == 0 {
			path = "/gone"
		}
		device := newDevice(t, srv.URL+path)
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = client.Deliver(context.Background(), device, []byte(`{}`), Options{})
		}()
	}
	wg.Wait()

	for i, o := range outcomes {
		if i%4 == 0 {
			assert.Equal(t, ClassExpired, o.Class)
		} else {
			assert.Equal(t, ClassSuccess, o.Class)
		}
	}
}
