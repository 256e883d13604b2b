package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

type MessageInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Message string `json:"message" validate:"required,max=2000"`
}

type MessagePage struct {
	Messages []models.Message `json:"messages"`
	Total    int64            `json:"total"`
	Page     int64            `json:"page"`
	Limit    int64            `json:"limit"`
}

// MessageService handles the public contact form and its admin inbox.
type MessageService struct {
	messages repository.MessageRepository
	events   notify.Publisher
	now      func() time.Time
}

func NewMessageService(messages repository.MessageRepository, events notify.Publisher) *MessageService {
	if events == nil {
		events = notify.Discard{}
	}
	return &MessageService{messages: messages, events: events, now: time.Now}
}

func (s *MessageService) Create(ctx context.Context, input MessageInput) (*models.Message, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Message = strings.TrimSpace(input.Message)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	msg := &models.Message{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Message:   input.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	s.events.Emit(notify.NewEvent(
		notify.EventMessageCreated,
		"New message",
		fmt.Sprintf("Message from %s", msg.Name),
		map[string]any{"messageId": msg.ID.Hex(), "email": msg.Email},
	))
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, actor models.Identity, page, limit int64) (*MessagePage, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}
	msgs, total, err := s.messages.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &MessagePage{Messages: msgs, Total: total, Page: page, Limit: limit}, nil
}

func (s *MessageService) MarkRead(ctx context.Context, actor models.Identity, id primitive.ObjectID, read bool) (*models.Message, error) {
	if !actor.IsAdmin {
		return nil, ErrAdminRequired
	}
	msg, err := s.messages.SetRead(ctx, id, read)
	if err != nil {
		return nil, mapMessageErr(err)
	}
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, actor models.Identity, id primitive.ObjectID) error {
	if !actor.IsAdmin {
		return ErrAdminRequired
	}
	if err := s.messages.Delete(ctx, id); err != nil {
		return mapMessageErr(err)
	}
	return nil
}

func mapMessageErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrMessageNotFound
	}
	return fmt.Errorf("message store: %w", err)
}
