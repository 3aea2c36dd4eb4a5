package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
	"github.com/DeH-M/MachTrueke/pkg/logger"
)

type ChatRepository interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversationByID(ctx context.Context, id int64) (*domain.Conversation, error)
	GetConversationByPair(ctx context.Context, user1ID, user2ID int64, productID *int64) (*domain.Conversation, error)
	ListConversationsFor(ctx context.Context, userID int64, limit, offset int) ([]*domain.Conversation, error)
	SetHidden(ctx context.Context, conversationID, userID int64, hidden bool) error
	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListVisibleMessagesMarkingRead(ctx context.Context, conversationID, viewerID int64) ([]*domain.Message, error)
	LastVisibleMessage(ctx context.Context, conversationID int64) (*domain.Message, error)
	CountUnread(ctx context.Context, conversationID, viewerID int64) (int64, error)
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

const conversationColumns = `id, product_id, user1_id, user2_id, hidden_for_user1, hidden_for_user2, created_at, updated_at`

// CreateConversation inserts a conversation for a canonical pair. The
// unique constraint over (product_id, user1_id, user2_id) is the
// arbiter for concurrent creates; a violation comes back as ErrConflict
// so the caller can re-select the winning row.
func (r *chatRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (product_id, user1_id, user2_id)
		VALUES ($1, $2, $3)
		RETURNING id, hidden_for_user1, hidden_for_user2, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, conv.ProductID, conv.User1ID, conv.User2ID).Scan(
		&conv.ID, &conv.HiddenForUser1, &conv.HiddenForUser2, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return appErrors.ErrConflict
		}
		r.log.Error("Failed to create conversation", "error", err,
			"user1_id", conv.User1ID, "user2_id", conv.User2ID)
		return err
	}

	return nil
}

func (r *chatRepository) GetConversationByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return r.scanConversation(r.db.QueryRow(ctx, query, id))
}

func (r *chatRepository) GetConversationByPair(ctx context.Context, user1ID, user2ID int64, productID *int64) (*domain.Conversation, error) {
	// IS NOT DISTINCT FROM matches a NULL product scope as well, so a
	// general conversation and a product-scoped one stay separate rows.
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE user1_id = $1 AND user2_id = $2 AND product_id IS NOT DISTINCT FROM $3
	`
	return r.scanConversation(r.db.QueryRow(ctx, query, user1ID, user2ID, productID))
}

func (r *chatRepository) ListConversationsFor(ctx context.Context, userID int64, limit, offset int) ([]*domain.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE (user1_id = $1 AND hidden_for_user1 = FALSE)
		   OR (user2_id = $1 AND hidden_for_user2 = FALSE)
		ORDER BY updated_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conv := &domain.Conversation{}
		err := rows.Scan(
			&conv.ID, &conv.ProductID, &conv.User1ID, &conv.User2ID,
			&conv.HiddenForUser1, &conv.HiddenForUser2, &conv.CreatedAt, &conv.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation", "error", err)
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// SetHidden flips the hidden flag on whichever slot userID occupies.
// The other slot is never touched.
func (r *chatRepository) SetHidden(ctx context.Context, conversationID, userID int64, hidden bool) error {
	query := `
		UPDATE conversations
		SET hidden_for_user1 = CASE WHEN user1_id = $2 THEN $3 ELSE hidden_for_user1 END,
		    hidden_for_user2 = CASE WHEN user2_id = $2 THEN $3 ELSE hidden_for_user2 END
		WHERE id = $1 AND (user1_id = $2 OR user2_id = $2)
	`

	tag, err := r.db.Exec(ctx, query, conversationID, userID, hidden)
	if err != nil {
		r.log.Error("Failed to update hidden flag", "error", err, "conversation_id", conversationID)
		return err
	}
	if tag.RowsAffected() == 0 {
		return appErrors.ErrConversationNotFound
	}

	return nil
}

// CreateMessage appends the message and bumps the conversation's
// updated_at in the same transaction, so list ordering always reflects
// the append.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", "error", err)
		return err
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO messages (conversation_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err = tx.QueryRow(ctx, insert, msg.ConversationID, msg.SenderID, msg.Body).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "conversation_id", msg.ConversationID)
		return err
	}

	touch := `UPDATE conversations SET updated_at = now() WHERE id = $1`
	if _, err := tx.Exec(ctx, touch, msg.ConversationID); err != nil {
		r.log.Error("Failed to touch conversation", "error", err, "conversation_id", msg.ConversationID)
		return err
	}

	return tx.Commit(ctx)
}

// ListVisibleMessagesMarkingRead returns the transcript oldest-first
// and, in the same transaction, stamps read_at on every visible message
// the viewer did not send. The stamp equals the message's created_at
// and is never overwritten once set.
func (r *chatRepository) ListVisibleMessagesMarkingRead(ctx context.Context, conversationID, viewerID int64) ([]*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin transaction", "error", err)
		return nil, err
	}
	defer tx.Rollback(ctx)

	markRead := `
		UPDATE messages
		SET read_at = created_at
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND read_at IS NULL
		  AND is_deleted_by_sender = FALSE
	`

	if _, err := tx.Exec(ctx, markRead, conversationID, viewerID); err != nil {
		r.log.Error("Failed to mark messages read", "error", err, "conversation_id", conversationID)
		return nil, err
	}

	list := `
		SELECT id, conversation_id, sender_id, body, created_at, read_at
		FROM messages
		WHERE conversation_id = $1 AND is_deleted_by_sender = FALSE
		ORDER BY id
	`

	rows, err := tx.Query(ctx, list, conversationID)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err, "conversation_id", conversationID)
		return nil, err
	}

	var messages []*domain.Message
	for rows.Next() {
		msg := &domain.Message{}
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &msg.ReadAt)
		if err != nil {
			rows.Close()
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *chatRepository) LastVisibleMessage(ctx context.Context, conversationID int64) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, body, created_at, read_at
		FROM messages
		WHERE conversation_id = $1 AND is_deleted_by_sender = FALSE
		ORDER BY id DESC
		LIMIT 1
	`

	msg := &domain.Message{}
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Body, &msg.CreatedAt, &msg.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("Failed to get last message", "error", err, "conversation_id", conversationID)
		return nil, err
	}

	return msg, nil
}

func (r *chatRepository) CountUnread(ctx context.Context, conversationID, viewerID int64) (int64, error) {
	query := `
		SELECT count(*)
		FROM messages
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND read_at IS NULL
		  AND is_deleted_by_sender = FALSE
	`

	var count int64
	err := r.db.QueryRow(ctx, query, conversationID, viewerID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count unread messages", "error", err, "conversation_id", conversationID)
		return 0, err
	}

	return count, nil
}

func (r *chatRepository) scanConversation(row pgx.Row) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	err := row.Scan(
		&conv.ID, &conv.ProductID, &conv.User1ID, &conv.User2ID,
		&conv.HiddenForUser1, &conv.HiddenForUser2, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrConversationNotFound
		}
		r.log.Error("Failed to scan conversation", "error", err)
		return nil, err
	}
	return conv, nil
}
