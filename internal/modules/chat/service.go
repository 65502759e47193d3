package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/biblia-chat/core/internal/i18n"
	"github.com/biblia-chat/core/internal/models"
	"github.com/biblia-chat/core/internal/pkg/pagination"
	"github.com/biblia-chat/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTopicNotFound   = errors.New("topic not found")
	ErrMessageNotFound = errors.New("message not found")
)

// topicNameWordLimit caps how many words of the first message become the
// lazily created topic's name.
const topicNameWordLimit = 3

// Service owns topics, chats and the assistant-reply accumulator. One chat
// per topic; messages are stored as a JSON document and mutated by full
// read-modify-write, except during reply streaming where the document is
// persisted after every decoded delta.
type Service struct {
	db          *gorm.DB
	completions *CompletionClient
	log         *zap.Logger
}

func NewService(db *gorm.DB, completions *CompletionClient, log *zap.Logger) *Service {
	return &Service{db: db, completions: completions, log: log}
}

// ListTopics returns one page of the user's topics, most recently active
// first.
func (s *Service) ListTopics(userID string, q pagination.Query) ([]models.TopicModel, response.Pagination, error) {
	db := s.db.Model(&models.TopicModel{}).
		Where("user_id = ?", userID).
		Order("last_message_date DESC").
		Order("created_at DESC")
	var topics []models.TopicModel
	page, err := pagination.Paginate(db, q, &topics)
	return topics, page, err
}

func (s *Service) CreateTopic(userID, name string) (*models.TopicModel, error) {
	topic := &models.TopicModel{UserID: userID, Name: strings.TrimSpace(name)}
	if err := s.db.Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *Service) RenameTopic(userID string, topicID uint, name string) (*models.TopicModel, error) {
	topic, err := s.findTopic(userID, topicID)
	if err != nil {
		return nil, err
	}
	topic.Name = strings.TrimSpace(name)
	if err := s.db.Save(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

// DeleteTopic removes the topic and every chat bound to it, atomically.
func (s *Service) DeleteTopic(userID string, topicID uint) error {
	if _, err := s.findTopic(userID, topicID); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.TopicModel{}, "id = ? AND user_id = ?", topicID, userID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ChatModel{}, "topic_id = ?", topicID).Error
	})
}

// ChatForTopic returns the topic's chat, creating an empty one on first
// access.
func (s *Service) ChatForTopic(userID string, topicID uint) (*models.ChatModel, error) {
	if _, err := s.findTopic(userID, topicID); err != nil {
		return nil, err
	}
	var chat models.ChatModel
	err := s.db.Where("topic_id = ?", topicID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		chat = models.ChatModel{TopicID: topicID, Messages: []models.ChatMessage{}}
		if err := s.db.Create(&chat).Error; err != nil {
			return nil, err
		}
		return &chat, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AddUserMessage appends a user message, creating topic and chat lazily.
// With topicID 0 a new topic is named from the message's first words. The
// topic's lastMessageDate is bumped either way.
func (s *Service) AddUserMessage(userID string, topicID uint, content, lang string) (*models.TopicModel, *models.ChatModel, error) {
	var topic *models.TopicModel
	var err error
	if topicID == 0 {
		topic, err = s.CreateTopic(userID, topicNameFromMessage(content, lang))
	} else {
		topic, err = s.findTopic(userID, topicID)
	}
	if err != nil {
		return nil, nil, err
	}

	chat, err := s.ChatForTopic(userID, topic.ID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	chat.Messages = append(chat.Messages, models.ChatMessage{
		Content:   content,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err := s.saveMessages(chat); err != nil {
		return nil, nil, err
	}

	topic.LastMessageDate = &now
	if err := s.db.Save(topic).Error; err != nil {
		return nil, nil, err
	}
	return topic, chat, nil
}

// DeleteMessage removes the message at the given position.
func (s *Service) DeleteMessage(userID string, topicID uint, index int) (*models.ChatModel, error) {
	chat, err := s.ChatForTopic(userID, topicID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(chat.Messages) {
		return nil, ErrMessageNotFound
	}
	chat.Messages = append(chat.Messages[:index], chat.Messages[index+1:]...)
	if err := s.saveMessages(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// EditMessage replaces the message content at the given position. The
// prior version is pushed onto the message's branch log; position and role
// never change and earlier branches are never touched.
func (s *Service) EditMessage(userID string, topicID uint, index int, content string) (*models.ChatModel, error) {
	chat, err := s.ChatForTopic(userID, topicID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(chat.Messages) {
		return nil, ErrMessageNotFound
	}

	msg := &chat.Messages[index]
	now := time.Now()
	msg.Branches = append(msg.Branches, models.ChatMessage{
		Content:   msg.Content,
		Role:      msg.Role,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	})
	msg.Content = content
	msg.UpdatedAt = now

	if err := s.saveMessages(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// Message returns the message at a position, for playback and sharing.
func (s *Service) Message(userID string, topicID uint, index int) (*models.ChatMessage, error) {
	chat, err := s.ChatForTopic(userID, topicID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(chat.Messages) {
		return nil, ErrMessageNotFound
	}
	return &chat.Messages[index], nil
}

// SendMessage streams the assistant reply for the chat's current history.
// It appends an empty assistant message, persists after every decoded
// delta, and invokes onDelta for each one so a handler can relay the
// stream. A transport failure replaces the content with a fixed localized
// error string; a mid-stream drop leaves the partial content unfinished.
func (s *Service) SendMessage(ctx context.Context, userID string, topicID uint, lang string, onDelta func(string)) (*models.ChatMessage, error) {
	chat, err := s.ChatForTopic(userID, topicID)
	if err != nil {
		return nil, err
	}

	history := make([]PromptMessage, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		history = append(history, PromptMessage{Role: m.Role, Content: m.Content})
	}

	now := time.Now()
	chat.Messages = append(chat.Messages, models.ChatMessage{
		Role:      models.RoleAssistant,
		CreatedAt: now,
		UpdatedAt: now,
	})
	idx := len(chat.Messages) - 1
	if err := s.saveMessages(chat); err != nil {
		return &chat.Messages[idx], err
	}

	reader, err := s.completions.Stream(ctx, lang, history)
	if err != nil {
		chat.Messages[idx].Content = i18n.ChatErrorMessage(lang)
		chat.Messages[idx].UpdatedAt = time.Now()
		if saveErr := s.saveMessages(chat); saveErr != nil {
			s.log.Error("persisting error message failed", zap.Error(saveErr))
		}
		return &chat.Messages[idx], err
	}
	defer reader.Close()

	for {
		delta, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Partial content stays persisted, message stays unfinished.
			s.log.Warn("reply stream dropped", zap.Uint("topic_id", topicID), zap.Error(err))
			return &chat.Messages[idx], nil
		}

		chat.Messages[idx].Content += delta
		chat.Messages[idx].UpdatedAt = time.Now()
		if err := s.saveMessages(chat); err != nil {
			return &chat.Messages[idx], err
		}
		if onDelta != nil {
			onDelta(delta)
		}
	}

	chat.Messages[idx].Finished = true
	chat.Messages[idx].UpdatedAt = time.Now()
	if err := s.saveMessages(chat); err != nil {
		return &chat.Messages[idx], err
	}
	return &chat.Messages[idx], nil
}

// SetMessageAudioURL records where a synthesized reading of the message
// was cached.
func (s *Service) SetMessageAudioURL(userID string, topicID uint, index int, audioURL string) error {
	chat, err := s.ChatForTopic(userID, topicID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(chat.Messages) {
		return ErrMessageNotFound
	}
	chat.Messages[index].AudioURL = audioURL
	chat.Messages[index].UpdatedAt = time.Now()
	return s.saveMessages(chat)
}

func (s *Service) findTopic(userID string, topicID uint) (*models.TopicModel, error) {
	var topic models.TopicModel
	err := s.db.Where("id = ? AND user_id = ?", topicID, userID).First(&topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

// saveMessages persists the chat through the full model so the message
// slice goes through the column's JSON serializer.
func (s *Service) saveMessages(chat *models.ChatModel) error {
	return s.db.Save(chat).Error
}

func topicNameFromMessage(content, lang string) string {
	words := strings.Fields(content)
	if len(words) > topicNameWordLimit {
		words = words[:topicNameWordLimit]
	}
	name := strings.Join(words, " ")
	if name == "" {
		return i18n.DefaultTopicName(lang)
	}
	return name
}
