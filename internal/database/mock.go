package database

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetProjectById(id int) (Project, error) {
	args := m.Called(id)
	return args.Get(0).(Project), args.Error(1)
}
func (m *MockRepository) GetChatRoomById(id int) (ChatRoom, error) {
	args := m.Called(id)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockRepository) GetOrCreateChatRoom(projectId int) (ChatRoom, error) {
	args := m.Called(projectId)
	return args.Get(0).(ChatRoom), args.Error(1)
}
func (m *MockRepository) CreateMessage(msg Message) (Message, error) {
	args := m.Called(msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessages(roomId, limit int) ([]Message, error) {
	args := m.Called(roomId, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) GetActiveAuctionItem() (AuctionItem, error) {
	args := m.Called()
	return args.Get(0).(AuctionItem), args.Error(1)
}
func (m *MockRepository) PlaceBid(amount decimal.Decimal, bidderId int, bidderName string) (BidResult, error) {
	args := m.Called(amount, bidderId, bidderName)
	return args.Get(0).(BidResult), args.Error(1)
}
func (m *MockRepository) CreateAuctionItem(params CreateAuctionItemParams) (AuctionItem, error) {
	args := m.Called(params)
	return args.Get(0).(AuctionItem), args.Error(1)
}
