package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
)

func newChatService(t *testing.T) (ChatService, *fakeChatRepo, *fakeProductRepo) {
	t.Helper()
	chatRepo := newFakeChatRepo()
	productRepo := newFakeProductRepo()
	return NewChatService(chatRepo, productRepo, nopLogger{}), chatRepo, productRepo
}

func TestChatService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("both directions resolve to the same conversation", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		first, err := svc.Start(ctx, 7, 3, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), first.User1ID)
		assert.Equal(t, int64(7), first.User2ID)

		second, err := svc.Start(ctx, 3, 7, nil)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("starting twice is idempotent", func(t *testing.T) {
		svc, repo, _ := newChatService(t)

		first, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		second, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, repo.conversations, 1)
	})

	t.Run("self conversation is rejected", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		_, err := svc.Start(ctx, 5, 5, nil)
		assert.ErrorIs(t, err, appErrors.ErrSelfConversation)
	})

	t.Run("unknown product scope is rejected", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		productID := int64(99)
		_, err := svc.Start(ctx, 1, 2, &productID)
		assert.ErrorIs(t, err, appErrors.ErrProductNotFound)
	})

	t.Run("product scope separates conversations for the same pair", func(t *testing.T) {
		svc, _, productRepo := newChatService(t)

		product := &domain.Product{Title: "Bike", OwnerID: 2, IsActive: true}
		require.NoError(t, productRepo.Create(ctx, product))

		general, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		scoped, err := svc.Start(ctx, 1, 2, &product.ID)
		require.NoError(t, err)

		assert.NotEqual(t, general.ID, scoped.ID)
		require.NotNil(t, scoped.ProductID)
		assert.Equal(t, product.ID, *scoped.ProductID)
	})

	t.Run("losing the creation race re-selects the winning row", func(t *testing.T) {
		svc, repo, _ := newChatService(t)
		repo.loseCreateRace = true

		summary, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		assert.NotZero(t, summary.ID)
		assert.Len(t, repo.conversations, 1)
	})
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("append and validation", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		msg, err := svc.SendMessage(ctx, conv.ID, 1, "hola")
		require.NoError(t, err)
		assert.Equal(t, conv.ID, msg.ConversationID)
		assert.Equal(t, int64(1), msg.SenderID)
		assert.NotZero(t, msg.ID)
		assert.Nil(t, msg.ReadAt)

		_, err = svc.SendMessage(ctx, conv.ID, 1, "")
		assert.ErrorIs(t, err, appErrors.ErrEmptyMessageBody)

		_, err = svc.SendMessage(ctx, conv.ID, 1, strings.Repeat("a", domain.MaxMessageBodyLen+1))
		assert.ErrorIs(t, err, appErrors.ErrMessageTooLong)
	})

	t.Run("body length bound counts runes, not bytes", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		_, err = svc.SendMessage(ctx, conv.ID, 1, strings.Repeat("ñ", domain.MaxMessageBodyLen))
		assert.NoError(t, err)
	})

	t.Run("non-participant gets not found", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		_, err = svc.SendMessage(ctx, conv.ID, 3, "intruso")
		assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		_, err := svc.SendMessage(ctx, 42, 1, "hola")
		assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	})
}

func TestChatService_GetMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("transcript is oldest first and marks reads", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		for _, body := range []string{"uno", "dos", "tres"} {
			_, err := svc.SendMessage(ctx, conv.ID, 1, body)
			require.NoError(t, err)
		}

		messages, err := svc.GetMessages(ctx, conv.ID, 2)
		require.NoError(t, err)
		require.Len(t, messages, 3)

		for i := 1; i < len(messages); i++ {
			assert.Greater(t, messages[i].ID, messages[i-1].ID)
		}
		for _, msg := range messages {
			require.NotNil(t, msg.ReadAt)
			assert.Equal(t, msg.CreatedAt, *msg.ReadAt)
		}
	})

	t.Run("sender's own fetch does not mark reads", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		_, err = svc.SendMessage(ctx, conv.ID, 1, "hola")
		require.NoError(t, err)

		messages, err := svc.GetMessages(ctx, conv.ID, 1)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Nil(t, messages[0].ReadAt)
	})

	t.Run("read_at is stamped once and never changes", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		_, err = svc.SendMessage(ctx, conv.ID, 1, "hola")
		require.NoError(t, err)

		first, err := svc.GetMessages(ctx, conv.ID, 2)
		require.NoError(t, err)
		second, err := svc.GetMessages(ctx, conv.ID, 2)
		require.NoError(t, err)

		require.NotNil(t, first[0].ReadAt)
		require.NotNil(t, second[0].ReadAt)
		assert.Equal(t, *first[0].ReadAt, *second[0].ReadAt)
	})

	t.Run("non-participant gets not found", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		_, err = svc.GetMessages(ctx, conv.ID, 3)
		assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	})

	t.Run("messages deleted by sender are excluded", func(t *testing.T) {
		svc, repo, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		_, err = svc.SendMessage(ctx, conv.ID, 1, "visible")
		require.NoError(t, err)
		deleted, err := svc.SendMessage(ctx, conv.ID, 1, "borrado")
		require.NoError(t, err)

		for _, msg := range repo.messages {
			if msg.ID == deleted.ID {
				msg.IsDeletedBySender = true
			}
		}

		messages, err := svc.GetMessages(ctx, conv.ID, 2)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "visible", messages[0].Body)
	})
}

func TestChatService_UnreadCounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newChatService(t)

	conv, err := svc.Start(ctx, 1, 2, nil)
	require.NoError(t, err)

	for _, body := range []string{"uno", "dos"} {
		_, err := svc.SendMessage(ctx, conv.ID, 1, body)
		require.NoError(t, err)
	}

	// The recipient sees 2 unread, the sender sees 0.
	list2, err := svc.List(ctx, 2, 20, 0)
	require.NoError(t, err)
	require.Len(t, list2, 1)
	assert.Equal(t, int64(2), list2[0].UnreadCount)
	assert.Equal(t, "dos", list2[0].LastMessage.Body)

	list1, err := svc.List(ctx, 1, 20, 0)
	require.NoError(t, err)
	require.Len(t, list1, 1)
	assert.Equal(t, int64(0), list1[0].UnreadCount)

	// Fetching clears the unread count for everything that existed.
	_, err = svc.GetMessages(ctx, conv.ID, 2)
	require.NoError(t, err)

	list2, err = svc.List(ctx, 2, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list2[0].UnreadCount)
}

func TestChatService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("most recently active first", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		first, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		second, err := svc.Start(ctx, 1, 3, nil)
		require.NoError(t, err)

		// Activity in the older conversation moves it to the top.
		_, err = svc.SendMessage(ctx, first.ID, 2, "hola")
		require.NoError(t, err)

		list, err := svc.List(ctx, 1, 20, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
	})

	t.Run("limit is clamped to the default", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		_, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		list, err := svc.List(ctx, 1, -5, -3)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestChatService_Hide(t *testing.T) {
	ctx := context.Background()

	t.Run("hides for one participant only and restart restores", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		require.NoError(t, svc.Hide(ctx, conv.ID, 2))

		list2, err := svc.List(ctx, 2, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, list2)

		list1, err := svc.List(ctx, 1, 20, 0)
		require.NoError(t, err)
		assert.Len(t, list1, 1)

		// Re-starting surfaces it again for the hider only.
		again, err := svc.Start(ctx, 2, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, conv.ID, again.ID)

		list2, err = svc.List(ctx, 2, 20, 0)
		require.NoError(t, err)
		assert.Len(t, list2, 1)
	})

	t.Run("restart by the other participant does not unhide", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)
		require.NoError(t, svc.Hide(ctx, conv.ID, 2))

		_, err = svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		list2, err := svc.List(ctx, 2, 20, 0)
		require.NoError(t, err)
		assert.Empty(t, list2)
	})

	t.Run("hiding twice is a no-op", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		require.NoError(t, svc.Hide(ctx, conv.ID, 1))
		require.NoError(t, svc.Hide(ctx, conv.ID, 1))
	})

	t.Run("non-participant gets not found", func(t *testing.T) {
		svc, _, _ := newChatService(t)

		conv, err := svc.Start(ctx, 1, 2, nil)
		require.NoError(t, err)

		err = svc.Hide(ctx, conv.ID, 3)
		assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	})
}

// The end-to-end exchange between two users, as seen through the
// service API.
func TestChatService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newChatService(t)

	conv, err := svc.Start(ctx, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), conv.User1ID)
	assert.Equal(t, int64(2), conv.User2ID)

	same, err := svc.Start(ctx, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, same.ID)

	_, err = svc.SendMessage(ctx, conv.ID, 1, "hi")
	require.NoError(t, err)

	list2, err := svc.List(ctx, 2, 20, 0)
	require.NoError(t, err)
	require.Len(t, list2, 1)
	assert.Equal(t, int64(1), list2[0].UnreadCount)
	assert.Equal(t, "hi", list2[0].LastMessage.Body)

	_, err = svc.GetMessages(ctx, conv.ID, 2)
	require.NoError(t, err)

	list2, err = svc.List(ctx, 2, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list2[0].UnreadCount)

	require.NoError(t, svc.Hide(ctx, conv.ID, 2))

	list2, err = svc.List(ctx, 2, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, list2)

	list1, err := svc.List(ctx, 1, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list1, 1)
}
