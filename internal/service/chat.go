package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/DeH-M/MachTrueke/internal/domain"
	"github.com/DeH-M/MachTrueke/internal/repository"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type ChatService interface {
	Start(ctx context.Context, requesterID, otherUserID int64, productID *int64) (*domain.ConversationSummary, error)
	List(ctx context.Context, viewerID int64, limit, offset int) ([]*domain.ConversationSummary, error)
	GetMessages(ctx context.Context, conversationID, viewerID int64) ([]*domain.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID int64, body string) (*domain.Message, error)
	Hide(ctx context.Context, conversationID, requesterID int64) error
}

type chatService struct {
	chatRepo    repository.ChatRepository
	productRepo repository.ProductRepository
	log         logger.Logger
}

func NewChatService(chatRepo repository.ChatRepository, productRepo repository.ProductRepository, log logger.Logger) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		productRepo: productRepo,
		log:         log,
	}
}

// Start resolves the conversation between the requester and the other
// user for the given product scope, creating it if it does not exist.
// Both directions resolve to the same row because the pair is stored in
// canonical order. Starting an already-hidden conversation surfaces it
// again for the requester only.
func (s *chatService) Start(ctx context.Context, requesterID, otherUserID int64, productID *int64) (*domain.ConversationSummary, error) {
	if requesterID == otherUserID {
		return nil, appErrors.ErrSelfConversation
	}

	if productID != nil {
		if _, err := s.productRepo.GetByID(ctx, *productID); err != nil {
			return nil, err
		}
	}

	user1ID, user2ID := domain.OrderPair(requesterID, otherUserID)

	conv, err := s.resolveConversation(ctx, user1ID, user2ID, productID)
	if err != nil {
		return nil, err
	}

	if conv.HiddenFor(requesterID) {
		if err := s.chatRepo.SetHidden(ctx, conv.ID, requesterID, false); err != nil {
			return nil, err
		}
	}

	return s.summarize(ctx, conv, requesterID)
}

// resolveConversation is the find-or-create step. The insert relies on
// the store's unique constraint: losing the creation race comes back as
// ErrConflict, in which case the winning row is re-selected instead of
// surfacing an error.
func (s *chatService) resolveConversation(ctx context.Context, user1ID, user2ID int64, productID *int64) (*domain.Conversation, error) {
	conv, err := s.chatRepo.GetConversationByPair(ctx, user1ID, user2ID, productID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, appErrors.ErrConversationNotFound) {
		return nil, err
	}

	conv = &domain.Conversation{
		ProductID: productID,
		User1ID:   user1ID,
		User2ID:   user2ID,
	}

	err = s.chatRepo.CreateConversation(ctx, conv)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, appErrors.ErrConflict) {
		return nil, err
	}

	s.log.Debug("Lost conversation creation race, re-selecting",
		"user1_id", user1ID, "user2_id", user2ID)
	return s.chatRepo.GetConversationByPair(ctx, user1ID, user2ID, productID)
}

func (s *chatService) List(ctx context.Context, viewerID int64, limit, offset int) ([]*domain.ConversationSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	conversations, err := s.chatRepo.ListConversationsFor(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary, err := s.summarize(ctx, conv, viewerID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetMessages returns the visible transcript oldest-first. Fetching is
// also the read receipt: every returned message the viewer did not send
// gets read_at stamped before the call returns.
func (s *chatService) GetMessages(ctx context.Context, conversationID, viewerID int64) ([]*domain.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	return s.chatRepo.ListVisibleMessagesMarkingRead(ctx, conversationID, viewerID)
}

func (s *chatService) SendMessage(ctx context.Context, conversationID, senderID int64, body string) (*domain.Message, error) {
	if body == "" {
		return nil, appErrors.ErrEmptyMessageBody
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageBodyLen {
		return nil, appErrors.ErrMessageTooLong
	}

	if _, err := s.participantConversation(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}

	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// Hide removes the conversation from the requester's list without
// touching the other participant's view or any message. Hiding an
// already-hidden conversation is a no-op.
func (s *chatService) Hide(ctx context.Context, conversationID, requesterID int64) error {
	if _, err := s.participantConversation(ctx, conversationID, requesterID); err != nil {
		return err
	}

	return s.chatRepo.SetHidden(ctx, conversationID, requesterID, true)
}

// participantConversation loads the conversation and answers with "not
// found" when the user is not a participant, so non-participants cannot
// probe which conversations exist.
func (s *chatService) participantConversation(ctx context.Context, conversationID, userID int64) (*domain.Conversation, error) {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, appErrors.ErrConversationNotFound
	}
	return conv, nil
}

func (s *chatService) summarize(ctx context.Context, conv *domain.Conversation, viewerID int64) (*domain.ConversationSummary, error) {
	lastMessage, err := s.chatRepo.LastVisibleMessage(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	unread, err := s.chatRepo.CountUnread(ctx, conv.ID, viewerID)
	if err != nil {
		return nil, err
	}

	return &domain.ConversationSummary{
		ID:          conv.ID,
		ProductID:   conv.ProductID,
		User1ID:     conv.User1ID,
		User2ID:     conv.User2ID,
		LastMessage: lastMessage,
		UnreadCount: unread,
	}, nil
}
