// Event hub tests in Reelo.

package hub

import (
	"Reelo/internal/entity"
	"Reelo/internal/test"
	"Reelo/pkg/log"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

// Global instance of log.Logger to be used during hub testing.
var logger log.Logger

// Global instance of gin MockRouter to be used during hub testing.
var mockRouter *gin.Engine

// Global instance of the event hub under test.
var h *Hub

// Test server wrapping the mock router, needed for real websocket upgrades.
var srv *httptest.Server

// Websocket form of the test server's upgrade path.
var wsURL string

// Sets up resources before testing the event hub in Reelo.
func setup() {
	// Logger
	logger = log.New("test")
	// Event hub
	h = New(logger)
	go h.Run()
	// Initializing router
	mockRouter = test.MockRouter()
	APIHandlers(mockRouter, h, logger)
	// Real server, httptest.ResponseRecorder can't carry a websocket upgrade
	srv = httptest.NewServer(mockRouter)
	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	logger.Info().Msg("Test resources setup successful.")
}

// Cleans up the resources built during execution of setup()
func teardown() {
	logger.Info().Msg("Cleaning up resources ...")
	srv.Close()
	h.Close()
	logger.Info().Msg("Cleanup complete :)")
}

func TestMain(m *testing.M) {
	// Setting up Resources
	setup()
	// Running the tests
	testExitCode := m.Run()
	// Cleanup Resources
	teardown()
	// Exit
	os.Exit(testExitCode)
}

// Helper to open a websocket client against the hub under test.
func dialClient(t *testing.T) *websocket.Conn {
	ws, _, dialerr := websocket.DefaultDialer.Dial(wsURL, nil)
	if dialerr != nil {
		t.Fatal(dialerr)
	}
	return ws
}

// Helper to block until the hub's client count reaches want.
func waitClientCount(t *testing.T, want int64) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Hub client count never reached %d, got %d", want, h.ClientCount())
}

// Helper to read and decode the next envelope off a websocket client.
func readEnvelope(t *testing.T, ws *websocket.Conn) entity.Envelope {
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, rerr := ws.ReadMessage()
	if rerr != nil {
		t.Fatal(rerr)
	}
	env, decerr := entity.DecodeEnvelope(raw)
	if decerr != nil {
		t.Fatal(decerr)
	}
	return env
}

func TestRelayExcludesSender(t *testing.T) {
	waitClientCount(t, 0)
	sender := dialClient(t)
	receiver := dialClient(t)
	defer sender.Close()
	defer receiver.Close()
	waitClientCount(t, 2)

	env, enverr := entity.NewEnvelope(entity.EventLike, entity.Topic{VideoID: 11}, nil)
	assert.Nil(t, enverr)
	data, mrserr := json.Marshal(env)
	assert.Nil(t, mrserr)
	assert.Nil(t, sender.WriteMessage(websocket.TextMessage, data))

	// The other client gets the relayed envelope
	got := readEnvelope(t, receiver)
	assert.Equal(t, entity.EventLike, got.Type)
	assert.Equal(t, int64(11), got.VideoID)

	// The sender never gets its own envelope back
	sender.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, rerr := sender.ReadMessage()
	assert.NotNil(t, rerr)
}

func TestRelayDropsMalformedEnvelopes(t *testing.T) {
	waitClientCount(t, 0)
	sender := dialClient(t)
	receiver := dialClient(t)
	defer sender.Close()
	defer receiver.Close()
	waitClientCount(t, 2)

	// Garbage first, then a valid envelope, relay order is preserved
	assert.Nil(t, sender.WriteMessage(websocket.TextMessage, []byte("definitely not an envelope")))
	assert.Nil(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport","videoId":1}`)))

	env, enverr := entity.NewEnvelope(entity.EventComment, entity.Topic{VideoID: 12}, nil)
	assert.Nil(t, enverr)
	data, mrserr := json.Marshal(env)
	assert.Nil(t, mrserr)
	assert.Nil(t, sender.WriteMessage(websocket.TextMessage, data))

	// The first thing the receiver sees is the valid envelope
	got := readEnvelope(t, receiver)
	assert.Equal(t, entity.EventComment, got.Type)
	assert.Equal(t, int64(12), got.VideoID)
}

func TestServerBroadcastReachesEveryClient(t *testing.T) {
	waitClientCount(t, 0)
	first := dialClient(t)
	second := dialClient(t)
	defer first.Close()
	defer second.Close()
	waitClientCount(t, 2)

	env, enverr := entity.NewEnvelope(entity.EventGift, entity.Topic{VideoID: 13}, entity.GiftPayload{
		Gift:   entity.GiftInfo{ID: "rose", Emoji: "🌹", Name: "Rose", Amount: 10, Rarity: entity.RarityRare},
		Sender: entity.SenderInfo{Username: "me_Bill..Weber..23"},
	})
	assert.Nil(t, enverr)
	assert.Nil(t, h.Broadcast(env))

	for _, ws := range []*websocket.Conn{first, second} {
		got := readEnvelope(t, ws)
		assert.Equal(t, entity.EventGift, got.Type)
		assert.Equal(t, int64(13), got.VideoID)
	}
}

func TestClientCountTracksConnections(t *testing.T) {
	waitClientCount(t, 0)
	first := dialClient(t)
	waitClientCount(t, 1)
	second := dialClient(t)
	waitClientCount(t, 2)

	first.Close()
	waitClientCount(t, 1)
	second.Close()
	waitClientCount(t, 0)
}

func TestHubStatsAPI(t *testing.T) {
	waitClientCount(t, 0)
	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/hub/stats",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), "connected_clients")
}

func TestMetricsEndpoint(t *testing.T) {
	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/metrics",
		Body:         bytes.NewReader([]byte{}),
		WantResponse: []int{http.StatusOK},
		Headers:      map[string]string{},
	}
	response := test.ExecuteAPITest(logger, t, mockRouter, request)
	assert.Contains(t, response.Body.String(), "reelo_hub_connected_clients")
}
