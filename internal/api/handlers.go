package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/Priyankak00/skilllink-live/internal/database"
	"github.com/Priyankak00/skilllink-live/internal/server"
	"github.com/Priyankak00/skilllink-live/internal/types"
)

const defaultMessageLimit = 100

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  types.User `json:"user"`
	Token string     `json:"token"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type CreateAuctionItemRequest struct {
	Title         string `json:"title"`
	StartingPrice string `json:"starting_price"`
}

type AuctionItemResponse struct {
	Title         string `json:"title"`
	Price         string `json:"price"`
	HighestBidder string `json:"highest_bidder,omitempty"`
	IsActive      bool   `json:"is_active"`
}

func (s *App) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func decodeJson(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func messageResponse(m database.Message) types.Message {
	return types.Message{
		Id:             m.Id,
		RoomId:         m.RoomId,
		SenderId:       m.SenderId,
		SenderUsername: m.SenderUsername,
		Content:        m.Content,
		Timestamp:      m.CreatedAt,
	}
}

// projectForChat loads the project named in the request path and checks the
// caller is one of its two chat parties. A nil project signals the response
// has already been written.
func (s *App) projectForChat(w http.ResponseWriter, r *http.Request) *database.Project {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return nil
	}

	projectId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return nil
	}

	project, err := s.db.GetProjectById(projectId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return nil
	}

	if !project.Authorized(userId) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return nil
	}

	return &project
}

func (s *App) getProjectMessages(w http.ResponseWriter, r *http.Request) {
	project := s.projectForChat(w, r)
	if project == nil {
		return
	}

	room, err := s.db.GetOrCreateChatRoom(project.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit := defaultMessageLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	msgs, err := s.db.GetMessages(room.Id, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.Message, len(msgs))
	for i, m := range msgs {
		resp[i] = messageResponse(m)
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *App) postProjectMessage(w http.ResponseWriter, r *http.Request) {
	project := s.projectForChat(w, r)
	if project == nil {
		return
	}

	// chat opens once a freelancer has accepted the project
	if !project.Assigned() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := decodeJson(r, &req); err != nil || req.Content == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userId, _ := UserId(r.Context())
	sender, err := s.db.GetAccountById(userId)
	if err != nil {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetOrCreateChatRoom(project.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.db.CreateMessage(database.Message{
		RoomId:         room.Id,
		SenderId:       sender.Id,
		SenderUsername: sender.Username,
		Content:        req.Content,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, messageResponse(msg))
}

func (s *App) getAuctionItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.db.GetActiveAuctionItem()
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrNoActiveItem) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, AuctionItemResponse{
		Title:         item.Title,
		Price:         item.CurrentPrice.StringFixed(2),
		HighestBidder: item.HighestBidder,
		IsActive:      item.IsActive,
	})
}

func (s *App) createAuctionItem(w http.ResponseWriter, r *http.Request) {
	var req CreateAuctionItemRequest
	if err := decodeJson(r, &req); err != nil || req.Title == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	price, err := decimal.NewFromString(req.StartingPrice)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	item, err := s.db.CreateAuctionItem(database.CreateAuctionItemParams{
		Title:         req.Title,
		StartingPrice: price,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, AuctionItemResponse{
		Title:    item.Title,
		Price:    item.CurrentPrice.StringFixed(2),
		IsActive: item.IsActive,
	})
}

func (s *App) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
}

// resolveWsUser maps the authenticated user id on the request context to a
// full account. Returns false when the response has been written already.
func (s *App) resolveWsUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	id, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return types.User{}, false
	}

	user, err := s.db.GetAccountById(id)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrNotFound) {
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return types.User{}, false
	}

	return types.User{
		Id:           user.Id,
		Username:     user.Username,
		EmailAddress: user.EmailAddress,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}, true
}

func (s *App) serveChatWs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveWsUser(w, r)
	if !ok {
		return
	}

	roomId, err := strconv.Atoi(r.PathValue("roomId"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(user, conn, s.live, s.log)
	if err := client.Join(server.NewChatSession(client, roomId)); err != nil {
		return
	}

	go client.Write()
	go client.Read()
}

func (s *App) serveAuctionWs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.resolveWsUser(w, r)
	if !ok {
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(user, conn, s.live, s.log)
	if err := client.Join(server.NewAuctionSession(client)); err != nil {
		return
	}

	go client.Write()
	go client.Read()
}
