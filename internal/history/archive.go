// Package history mirrors materialized chats and their messages into
// PostgreSQL. The realtime store stays the source of truth; the archive
// exists for moderation and dispute lookups after threads go quiet.
package history

import (
	"errors"
	"log"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/models"
)

// ChatRecord is one archived chat thread.
type ChatRecord struct {
	gorm.Model

	ChatID      string `gorm:"uniqueIndex;not null"`
	OfferID     int    `gorm:"index"`
	RequestID   int    `gorm:"index"`
	ClientID    string `gorm:"type:text;not null"`
	ProviderID  string `gorm:"type:text;not null"`
	OfferStatus string `gorm:"type:text;not null"`

	ClientName     string
	ProviderName   string
	ProviderSkills pq.StringArray `gorm:"type:text[]"`
}

// MessageRecord is one archived utterance, keyed by the store push id so a
// re-mirror never duplicates rows.
type MessageRecord struct {
	gorm.Model

	ChatID     string `gorm:"type:text;not null;index:idx_chat_msg"`
	PushKey    string `gorm:"uniqueIndex;not null"`
	SenderID   string `gorm:"type:text;not null;index:idx_chat_msg"`
	SenderRole string `gorm:"type:text"`
	Text       string `gorm:"type:text;not null"`
	SentAt     int64  `gorm:"index"`
}

// Archiver writes chat snapshots into the database.
type Archiver struct {
	DB *gorm.DB
}

func NewArchiver(db *gorm.DB) *Archiver {
	return &Archiver{DB: db}
}

// AutoMigrate creates the archive tables.
func (a *Archiver) AutoMigrate() error {
	return a.DB.AutoMigrate(&ChatRecord{}, &MessageRecord{})
}

// Mirror upserts every chat and message from the snapshot. Individual row
// failures are logged and the pass continues; the next snapshot retries.
func (a *Archiver) Mirror(chats []models.Chat) error {
	var firstErr error
	for _, chat := range chats {
		record := ChatRecord{
			ChatID:         chat.ID,
			OfferID:        chat.Meta.OfferID,
			RequestID:      chat.Meta.RequestID,
			ClientID:       chat.Meta.ClientID,
			ProviderID:     chat.Meta.ProviderID,
			OfferStatus:    string(chat.Meta.OfferStatus),
			ClientName:     chat.Meta.ClientName,
			ProviderName:   chat.Meta.ProviderName,
			ProviderSkills: splitSkills(chat.Meta.ProviderSkills),
		}
		err := a.DB.Where("chat_id = ?", chat.ID).
			Assign(map[string]any{"offer_status": record.OfferStatus}).
			FirstOrCreate(&record).Error
		if err != nil {
			log.Printf("history: mirror chat %s failed: %v", chat.ID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for key, msg := range chat.Messages {
			row := MessageRecord{
				ChatID:     chat.ID,
				PushKey:    key,
				SenderID:   msg.SenderID,
				SenderRole: msg.SenderRole,
				Text:       msg.Text,
				SentAt:     msg.Timestamp,
			}
			if err := a.DB.Where("push_key = ?", key).FirstOrCreate(&row).Error; err != nil {
				log.Printf("history: mirror message %s/%s failed: %v", chat.ID, key, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// History loads the archived messages of a chat, oldest first.
func (a *Archiver) History(chatID string) ([]MessageRecord, error) {
	var rows []MessageRecord
	err := a.DB.Where("chat_id = ?", chatID).Order("sent_at asc").Find(&rows).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rows, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Watch mirrors the chat collection on every cache change. The returned
// function detaches the watcher.
func (a *Archiver) Watch(c *cache.Cache) func() {
	return c.Subscribe(func(snap cache.Collections) {
		if err := a.Mirror(snap.Chats); err != nil {
			log.Printf("history: mirror pass incomplete: %v", err)
		}
	})
}

func splitSkills(summary string) pq.StringArray {
	if summary == "" {
		return pq.StringArray{}
	}
	parts := strings.Split(summary, ", ")
	return pq.StringArray(parts)
}
