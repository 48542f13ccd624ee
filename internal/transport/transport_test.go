package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Text  string
	Extra map[string]float32
}

type echoResponse struct {
	Text string
}

// TestRoundTrip mirrors the property in
// original_source/core/src/distributed/sonic/mod.rs's `basic_arb` test:
// whatever the handler returns is exactly what Send receives back.
func TestRoundTrip(t *testing.T) {
	srv, err := Bind[echoRequest, echoResponse](":0")
	require.NoError(t, err)
	defer srv.Close()

	go func() {
		req, err := srv.Accept()
		if err != nil {
			return
		}
		require.NoError(t, req.Respond(echoResponse{Text: "echo:" + req.Body().Text}))
	}()

	conn, err := Dial[echoRequest, echoResponse](context.Background(), srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	res, err := conn.Send(echoRequest{Text: "hello", Extra: map[string]float32{"a": 1.5}})
	require.NoError(t, err)
	require.Equal(t, "echo:hello", res.Text)
}

func TestRequestTimeout(t *testing.T) {
	srv, err := Bind[echoRequest, echoResponse](":0")
	require.NoError(t, err)
	defer srv.Close()

	go func() {
		req, err := srv.Accept()
		if err != nil {
			return
		}
		time.Sleep(200 * time.Millisecond)
		_ = req.Respond(echoResponse{Text: "late"})
	}()

	conn, err := Dial[echoRequest, echoResponse](context.Background(), srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.SendWithTimeout(echoRequest{Text: "hi"}, 20*time.Millisecond)
	require.Error(t, err)
	require.True(t, isRetryable(err))
}

func TestBodyTooLarge(t *testing.T) {
	srv, err := Bind[echoRequest, echoResponse](":0")
	require.NoError(t, err)
	defer srv.Close()

	go func() {
		req, err := srv.Accept()
		if err != nil {
			return
		}
		_ = req.Respond(echoResponse{})
	}()

	conn, err := DialTimeout[echoRequest, echoResponse](context.Background(), srv.Addr(), DefaultConnectTimeout, 8)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Send(echoRequest{Text: "this body is way too large for the limit"})
	require.Error(t, err)
}

func TestResilientConnectionRetriesOnTimeout(t *testing.T) {
	srv, err := Bind[echoRequest, echoResponse](":0")
	require.NoError(t, err)
	defer srv.Close()

	attempt := 0
	go func() {
		for i := 0; i < 2; i++ {
			req, err := srv.Accept()
			if err != nil {
				return
			}
			attempt++
			if attempt == 1 {
				// answer the first request late, without blocking the
				// accept of the retried connection.
				go func() {
					time.Sleep(100 * time.Millisecond)
					_ = req.Respond(echoResponse{Text: "ok"})
				}()
				continue
			}
			_ = req.Respond(echoResponse{Text: "ok"})
		}
	}()

	ctx := context.Background()
	rc, err := CreateResilient[echoRequest, echoResponse](ctx, srv.Addr(), DefaultConnectTimeout, NewExponentialBackoff(5*time.Millisecond, 20*time.Millisecond, 3))
	require.NoError(t, err)
	defer rc.Close()

	res, err := rc.SendWithTimeoutRetry(ctx, echoRequest{Text: "hi"}, 30*time.Millisecond, NewExponentialBackoff(5*time.Millisecond, 20*time.Millisecond, 3))
	require.NoError(t, err)
	require.Equal(t, "ok", res.Text)
}
