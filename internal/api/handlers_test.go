package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Priyankak00/skilllink-live/internal/config"
	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/server"
	"github.com/Priyankak00/skilllink-live/internal/stats"
	"github.com/Priyankak00/skilllink-live/internal/testutil"
	"github.com/Priyankak00/skilllink-live/internal/types"
)

// findCookie returns the named cookie from the recorded response, or nil.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func newHandlerTestApp(t *testing.T, db database.Repository) *App {
	t.Helper()
	return NewApp(http.NewServeMux(), testutil.TestLogger(t), nil, db, nil, &config.Config{
		ServerAddr: "localhost:0",
		SigningKey: []byte("test-signing-key"),
	})
}

func TestNewApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	db := &database.MockRepository{}
	live := &server.LiveServer{}
	cfg := &config.Config{
		ServerAddr:     "localhost:8000",
		DatabaseDSN:    "dsn",
		SigningKey:     []byte("secret"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	app := NewApp(mux, logger, live, db, &stats.MockStatsUpdater{}, cfg)

	assert.NotNil(t, app)
	assert.NotNil(t, app.mux)
	assert.Equal(t, logger, app.log)
	assert.Equal(t, db, app.db)
	assert.Equal(t, live, app.live)
	assert.Equal(t, cfg.SigningKey, app.signingKey)
	assert.Equal(t, cfg.AllowedOrigins, app.allowedOrigins)
	assert.Equal(t, cfg.ServerAddr, app.mux.Addr)
}

func TestGetProjectMessages(t *testing.T) {
	project := database.Project{
		Id:           3,
		Title:        "Landing page",
		ClientId:     1,
		FreelancerId: 2,
		Status:       types.ProjectStatusInProgress,
	}
	room := database.ChatRoom{Id: 10, ProjectId: project.Id, Project: project}

	t.Run("returns history to a project party", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		msgs := []database.Message{
			{Id: 1, RoomId: room.Id, SenderId: 1, SenderUsername: "alice", Content: "hi"},
			{Id: 2, RoomId: room.Id, SenderId: 2, SenderUsername: "bob", Content: "hello"},
		}
		mockRepo.On("GetProjectById", project.Id).Return(project, nil).Once()
		mockRepo.On("GetOrCreateChatRoom", project.Id).Return(room, nil).Once()
		mockRepo.On("GetMessages", room.Id, defaultMessageLimit).Return(msgs, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%d/messages", project.Id), nil)
		req.SetPathValue("id", fmt.Sprint(project.Id))
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.getProjectMessages(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp []types.Message
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, "alice", resp[0].SenderUsername)
		assert.Equal(t, "hello", resp[1].Content)
	})

	t.Run("honors limit query parameter", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProjectById", project.Id).Return(project, nil).Once()
		mockRepo.On("GetOrCreateChatRoom", project.Id).Return(room, nil).Once()
		mockRepo.On("GetMessages", room.Id, 5).Return([]database.Message{}, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%d/messages?limit=5", project.Id), nil)
		req.SetPathValue("id", fmt.Sprint(project.Id))
		req = req.WithContext(WithUserId(req.Context(), 2))
		app.getProjectMessages(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetProjectById", project.Id).Return(project, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/projects/%d/messages", project.Id), nil)
		req.SetPathValue("id", fmt.Sprint(project.Id))
		req = req.WithContext(WithUserId(req.Context(), 99))
		app.getProjectMessages(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown project", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetProjectById", 404).Return(database.Project{}, database.ErrNotFound).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/404/messages", nil)
		req.SetPathValue("id", "404")
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.getProjectMessages(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("non-numeric project id", func(t *testing.T) {
		app := newHandlerTestApp(t, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/projects/abc/messages", nil)
		req.SetPathValue("id", "abc")
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.getProjectMessages(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPostProjectMessage(t *testing.T) {
	project := database.Project{
		Id:           3,
		ClientId:     1,
		FreelancerId: 2,
		Status:       types.ProjectStatusInProgress,
	}
	room := database.ChatRoom{Id: 10, ProjectId: project.Id, Project: project}
	sender := database.User{Id: 1, Username: "alice"}

	t.Run("persists a message", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProjectById", project.Id).Return(project, nil).Once()
		mockRepo.On("GetAccountById", sender.Id).Return(sender, nil).Once()
		mockRepo.On("GetOrCreateChatRoom", project.Id).Return(room, nil).Once()
		mockRepo.On("CreateMessage", mock.MatchedBy(func(m database.Message) bool {
			return m.RoomId == room.Id && m.SenderId == sender.Id && m.Content == "hi there"
		})).Return(database.Message{
			Id:             7,
			RoomId:         room.Id,
			SenderId:       sender.Id,
			SenderUsername: sender.Username,
			Content:        "hi there",
		}, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%d/messages", project.Id),
			strings.NewReader(`{"content":"hi there"}`))
		req.SetPathValue("id", fmt.Sprint(project.Id))
		req = req.WithContext(WithUserId(req.Context(), sender.Id))
		app.postProjectMessage(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp types.Message
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 7, resp.Id)
		assert.Equal(t, "hi there", resp.Content)
	})

	t.Run("project without freelancer", func(t *testing.T) {
		unassigned := database.Project{Id: 4, ClientId: 1, Status: types.ProjectStatusOpen}

		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetProjectById", unassigned.Id).Return(unassigned, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/projects/4/messages",
			strings.NewReader(`{"content":"hi"}`))
		req.SetPathValue("id", "4")
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.postProjectMessage(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetProjectById", project.Id).Return(project, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/projects/%d/messages", project.Id),
			strings.NewReader(`{"content":""}`))
		req.SetPathValue("id", fmt.Sprint(project.Id))
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.postProjectMessage(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetAuctionItem(t *testing.T) {
	t.Run("returns the active item", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetActiveAuctionItem").Return(database.AuctionItem{
			Id:            1,
			Title:         "Vintage lens",
			CurrentPrice:  decimal.RequireFromString("125.50"),
			HighestBidder: "bob",
			IsActive:      true,
		}, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auction", nil)
		app.getAuctionItem(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp AuctionItemResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "Vintage lens", resp.Title)
		assert.Equal(t, "125.50", resp.Price)
		assert.Equal(t, "bob", resp.HighestBidder)
		assert.True(t, resp.IsActive)
	})

	t.Run("no active item", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetActiveAuctionItem").Return(database.AuctionItem{}, database.ErrNoActiveItem).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auction", nil)
		app.getAuctionItem(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCreateAuctionItem(t *testing.T) {
	t.Run("creates an item", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("CreateAuctionItem", mock.MatchedBy(func(p database.CreateAuctionItemParams) bool {
			return p.Title == "Vintage lens" && p.StartingPrice.Equal(decimal.RequireFromString("100.00"))
		})).Return(database.AuctionItem{
			Id:           1,
			Title:        "Vintage lens",
			CurrentPrice: decimal.RequireFromString("100.00"),
			IsActive:     true,
		}, nil).Once()

		app := newHandlerTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auction",
			strings.NewReader(`{"title":"Vintage lens","starting_price":"100.00"}`))
		app.createAuctionItem(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp AuctionItemResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "100.00", resp.Price)
		assert.True(t, resp.IsActive)
	})

	t.Run("rejects a non-decimal starting price", func(t *testing.T) {
		app := newHandlerTestApp(t, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auction",
			strings.NewReader(`{"title":"Vintage lens","starting_price":"lots"}`))
		app.createAuctionItem(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a missing title", func(t *testing.T) {
		app := newHandlerTestApp(t, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auction",
			strings.NewReader(`{"starting_price":"100.00"}`))
		app.createAuctionItem(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// testEnv runs the full HTTP stack against the in-memory repository so
// WebSocket flows can be exercised end to end.
type testEnv struct {
	app  *App
	repo *database.MemRepository
	live *server.LiveServer
	srv  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := database.NewMemRepository()
	logger := testutil.TestLogger(t)

	live, err := server.NewLiveServer(logger, repo, &stats.MockStatsUpdater{})
	if err != nil {
		t.Fatalf("failed to create live server: %v", err)
	}

	app := NewApp(http.NewServeMux(), logger, live, repo, &stats.MockStatsUpdater{}, &config.Config{
		ServerAddr: "localhost:0",
		SigningKey: []byte("e2e-signing-key"),
	})

	srv := httptest.NewServer(app.mux.Handler)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		live.Shutdown(ctx)
	})

	return &testEnv{app: app, repo: repo, live: live, srv: srv}
}

func (e *testEnv) registerUser(t *testing.T, username, email string) (database.User, string) {
	t.Helper()

	hash, err := hashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	u, err := e.repo.CreateAccount(database.CreateAccountParams{
		Username:     username,
		EmailAddress: email,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	token, err := e.app.createToken(types.User{Id: u.Id, Username: u.Username}, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	return u, token
}

func (e *testEnv) dial(t *testing.T, path, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + path
	if token != "" {
		wsURL += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}
	return frame
}

func Test_serveChatWs_rejectsBadHandshakes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		conn, resp, err := env.dial(t, "/ws/chat/1", "")
		if conn != nil {
			conn.Close()
		}
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		conn, resp, err := env.dial(t, "/ws/chat/1", "not-a-token")
		if conn != nil {
			conn.Close()
		}
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token for a deleted account", func(t *testing.T) {
		token, err := env.app.createToken(types.User{Id: 404}, time.Hour)
		if err != nil {
			t.Fatalf("failed to create token: %v", err)
		}

		conn, resp, err := env.dial(t, "/ws/chat/1", token)
		if conn != nil {
			conn.Close()
		}
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func Test_serveChatWs_endToEnd(t *testing.T) {
	env := newTestEnv(t)

	client, clientToken := env.registerUser(t, "alice", "alice@example.com")
	freelancer, freelancerToken := env.registerUser(t, "bob", "bob@example.com")

	project := env.repo.SeedProject(database.Project{
		Title:        "Landing page",
		ClientId:     client.Id,
		FreelancerId: freelancer.Id,
		Status:       types.ProjectStatusInProgress,
	})
	room, err := env.repo.GetOrCreateChatRoom(project.Id)
	if err != nil {
		t.Fatalf("failed to create chat room: %v", err)
	}
	path := fmt.Sprintf("/ws/chat/%d", room.Id)

	connA, resp, err := env.dial(t, path, clientToken)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	defer connA.Close()

	connB, resp, err := env.dial(t, path, freelancerToken)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	defer connB.Close()

	assert.Eventually(t, func() bool {
		return env.live.Registry.MemberCount(server.ChatRoomKey(room.Id)) == 2
	}, time.Second, 10*time.Millisecond, "expected both parties to join the room")

	err = connA.WriteJSON(map[string]string{"message": "hello bob"})
	assert.NoError(t, err)

	for _, conn := range []*websocket.Conn{connA, connB} {
		frame := readFrame(t, conn)
		assert.Equal(t, "hello bob", frame["message"])
		assert.Equal(t, "alice", frame["username"])
	}

	// a malformed frame is dropped without killing the connection
	err = connB.WriteMessage(websocket.TextMessage, []byte(`{"text":"wrong shape"}`))
	assert.NoError(t, err)
	err = connB.WriteJSON(map[string]string{"message": "still here"})
	assert.NoError(t, err)

	frame := readFrame(t, connA)
	assert.Equal(t, "still here", frame["message"])
	assert.Equal(t, "bob", frame["username"])

	// both messages were persisted in send order
	msgs, err := env.repo.GetMessages(room.Id, 10)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "hello bob", msgs[0].Content)
	assert.Equal(t, "still here", msgs[1].Content)
}

func Test_serveChatWs_refusesOutsiders(t *testing.T) {
	env := newTestEnv(t)

	client, _ := env.registerUser(t, "alice", "alice@example.com")
	freelancer, _ := env.registerUser(t, "bob", "bob@example.com")
	_, outsiderToken := env.registerUser(t, "mallory", "mallory@example.com")

	project := env.repo.SeedProject(database.Project{
		Title:        "Landing page",
		ClientId:     client.Id,
		FreelancerId: freelancer.Id,
		Status:       types.ProjectStatusInProgress,
	})
	room, err := env.repo.GetOrCreateChatRoom(project.Id)
	if err != nil {
		t.Fatalf("failed to create chat room: %v", err)
	}

	t.Run("non-party is closed with a policy violation", func(t *testing.T) {
		conn, resp, err := env.dial(t, fmt.Sprintf("/ws/chat/%d", room.Id), outsiderToken)
		assert.NoError(t, err, "handshake succeeds, authorization happens after the upgrade")
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
			"expected policy violation close, got %v", err)

		assert.Equal(t, 0, env.live.Registry.MemberCount(server.ChatRoomKey(room.Id)),
			"expected no membership for the refused client")
	})

	t.Run("unknown room is closed with a policy violation", func(t *testing.T) {
		conn, _, err := env.dial(t, "/ws/chat/9999", outsiderToken)
		assert.NoError(t, err)
		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
			"expected policy violation close, got %v", err)
	})
}

func Test_serveAuctionWs_endToEnd(t *testing.T) {
	env := newTestEnv(t)

	_, bidderToken := env.registerUser(t, "bidder", "bidder@example.com")

	_, err := env.repo.CreateAuctionItem(database.CreateAuctionItemParams{
		Title:         "Vintage lens",
		StartingPrice: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("failed to create auction item: %v", err)
	}

	conn, resp, err := env.dial(t, "/ws/auction", bidderToken)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	defer conn.Close()

	// joining session receives the price snapshot first
	frame := readFrame(t, conn)
	assert.Equal(t, "current_price", frame["type"])
	assert.Equal(t, "100.00", frame["price"])
	assert.Equal(t, "Vintage lens", frame["title"])

	// a higher bid is accepted and announced
	err = conn.WriteJSON(map[string]any{"type": "place_bid", "amount": "150.00"})
	assert.NoError(t, err)

	frame = readFrame(t, conn)
	assert.Equal(t, "new_highest_bid", frame["type"])
	assert.Equal(t, "150.00", frame["price"])
	assert.Equal(t, "bidder", frame["winner"])

	// a numeric amount at or below the standing price is rejected
	err = conn.WriteJSON(map[string]any{"type": "place_bid", "amount": 120})
	assert.NoError(t, err)

	frame = readFrame(t, conn)
	assert.Equal(t, "bid_rejected", frame["type"])
	assert.Equal(t, "bid_too_low", frame["reason"])
	assert.Equal(t, "150.00", frame["current_price"])

	// a non-decimal amount is rejected without a standing price
	err = conn.WriteJSON(map[string]any{"type": "place_bid", "amount": "lots"})
	assert.NoError(t, err)

	frame = readFrame(t, conn)
	assert.Equal(t, "bid_rejected", frame["type"])
	assert.Equal(t, "invalid_amount", frame["reason"])
	assert.NotContains(t, frame, "current_price")

	// unrecognized frames are ignored
	err = conn.WriteJSON(map[string]any{"type": "noise"})
	assert.NoError(t, err)
	err = conn.WriteJSON(map[string]any{"type": "place_bid", "amount": "200.00"})
	assert.NoError(t, err)

	frame = readFrame(t, conn)
	assert.Equal(t, "new_highest_bid", frame["type"])
	assert.Equal(t, "200.00", frame["price"])
}

func Test_serveAuctionWs_broadcastsToAllMembers(t *testing.T) {
	env := newTestEnv(t)

	_, bidderToken := env.registerUser(t, "bidder", "bidder@example.com")
	_, watcherToken := env.registerUser(t, "watcher", "watcher@example.com")

	_, err := env.repo.CreateAuctionItem(database.CreateAuctionItemParams{
		Title:         "Vintage lens",
		StartingPrice: decimal.RequireFromString("100.00"),
	})
	if err != nil {
		t.Fatalf("failed to create auction item: %v", err)
	}

	bidder, _, err := env.dial(t, "/ws/auction", bidderToken)
	assert.NoError(t, err)
	defer bidder.Close()
	readFrame(t, bidder) // snapshot

	watcher, _, err := env.dial(t, "/ws/auction", watcherToken)
	assert.NoError(t, err)
	defer watcher.Close()
	readFrame(t, watcher) // snapshot

	assert.Eventually(t, func() bool {
		return env.live.Registry.MemberCount(server.AuctionRoomKey) == 2
	}, time.Second, 10*time.Millisecond)

	err = bidder.WriteJSON(map[string]any{"type": "place_bid", "amount": "175.00"})
	assert.NoError(t, err)

	for _, conn := range []*websocket.Conn{bidder, watcher} {
		frame := readFrame(t, conn)
		assert.Equal(t, "new_highest_bid", frame["type"])
		assert.Equal(t, "175.00", frame["price"])
		assert.Equal(t, "bidder", frame["winner"])
	}
}

func Test_serveAuctionWs_noActiveItem(t *testing.T) {
	env := newTestEnv(t)

	_, bidderToken := env.registerUser(t, "bidder", "bidder@example.com")

	conn, _, err := env.dial(t, "/ws/auction", bidderToken)
	assert.NoError(t, err)
	defer conn.Close()

	// no snapshot without an active item; a bid is answered with a rejection
	err = conn.WriteJSON(map[string]any{"type": "place_bid", "amount": "100.00"})
	assert.NoError(t, err)

	frame := readFrame(t, conn)
	assert.Equal(t, "bid_rejected", frame["type"])
	assert.Equal(t, "no_active_item", frame["reason"])
}
