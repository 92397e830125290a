package pubsubserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/magicblock-labs/conjunto-director/internal/director/chainclient/chainclienttest"
	"github.com/magicblock-labs/conjunto-director/internal/director/pubsub"
)

// echoServer accepts a single websocket connection and echoes every
// frame it receives back to the same connection, recording each
// received frame on recv for assertions.
func echoServer(t *testing.T, recv chan<- string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")
		for {
			typ, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			recv <- string(data)
			if err := conn.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + srv.URL[len("http"):]
}

func TestServeHTTPRoutesPingToBothDownstreams(t *testing.T) {
	chainRecv := make(chan string, 4)
	ephemRecv := make(chan string, 4)
	chainSrv := echoServer(t, chainRecv)
	defer chainSrv.Close()
	ephemSrv := echoServer(t, ephemRecv)
	defer ephemSrv.Close()

	arbiter := &pubsub.Arbiter{
		Ephemeral:     chainclienttest.NewAccountProviderStub(),
		EphemeralSigs: &chainclienttest.SignatureStatusProviderStub{},
	}
	proxy := &Server{
		Arbiter:  arbiter,
		ChainURL: wsURL(chainSrv),
		EphemURL: wsURL(ephemSrv),
	}
	proxySrv := httptest.NewServer(http.HandlerFunc(proxy.ServeHTTP))
	defer proxySrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, _, err := websocket.Dial(ctx, wsURL(proxySrv), nil)
	if err != nil {
		t.Fatalf("dial proxy: %v", err)
	}
	defer client.Close(websocket.StatusNormalClosure, "test done")

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"ping","params":[]}`)
	if err := client.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-chainRecv:
		if got != string(msg) {
			t.Fatalf("chain got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chain to receive ping")
	}
	select {
	case got := <-ephemRecv:
		if got != string(msg) {
			t.Fatalf("ephemeral got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ephemeral to receive ping")
	}
}

func TestServeHTTPForwardsChainFrameToClient(t *testing.T) {
	chainRecv := make(chan string, 4)
	chainSrv := echoServer(t, chainRecv)
	defer chainSrv.Close()
	ephemRecv := make(chan string, 4)
	ephemSrv := echoServer(t, ephemRecv)
	defer ephemSrv.Close()

	arbiter := &pubsub.Arbiter{
		Ephemeral:     chainclienttest.NewAccountProviderStub(),
		EphemeralSigs: &chainclienttest.SignatureStatusProviderStub{},
	}
	proxy := &Server{
		Arbiter:  arbiter,
		ChainURL: wsURL(chainSrv),
		EphemURL: wsURL(ephemSrv),
	}
	proxySrv := httptest.NewServer(http.HandlerFunc(proxy.ServeHTTP))
	defer proxySrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, _, err := websocket.Dial(ctx, wsURL(proxySrv), nil)
	if err != nil {
		t.Fatalf("dial proxy: %v", err)
	}
	defer client.Close(websocket.StatusNormalClosure, "test done")

	// "getVersion" has no matching method, defaulting to chain-only
	// routing; the chain echo server will bounce it straight back,
	// and the proxy must relay the reply to the client.
	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"getVersion","params":[]}`)
	if err := client.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := client.Read(ctx)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if string(data) != string(msg) {
		t.Fatalf("client got %q", data)
	}
}
