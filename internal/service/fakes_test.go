package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DeH-M/MachTrueke/internal/domain"
	appErrors "github.com/DeH-M/MachTrueke/pkg/errors"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// fakeChatRepo is an in-memory ChatRepository with the same visibility,
// ordering and uniqueness semantics as the SQL implementation.
type fakeChatRepo struct {
	mu            sync.Mutex
	conversations map[int64]*domain.Conversation
	messages      []*domain.Message
	nextConvID    int64
	nextMsgID     int64
	clock         time.Time

	// When set, CreateConversation behaves as if a concurrent caller
	// won the race: the row appears, but the call reports a conflict.
	loseCreateRace bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		conversations: make(map[int64]*domain.Conversation),
		clock:         time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeChatRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeChatRepo) findByPair(user1ID, user2ID int64, productID *int64) *domain.Conversation {
	for _, conv := range f.conversations {
		if conv.User1ID != user1ID || conv.User2ID != user2ID {
			continue
		}
		if (conv.ProductID == nil) != (productID == nil) {
			continue
		}
		if productID != nil && *conv.ProductID != *productID {
			continue
		}
		return conv
	}
	return nil
}

func (f *fakeChatRepo) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findByPair(conv.User1ID, conv.User2ID, conv.ProductID) != nil {
		return appErrors.ErrConflict
	}

	f.nextConvID++
	now := f.tick()
	stored := &domain.Conversation{
		ID:        f.nextConvID,
		ProductID: conv.ProductID,
		User1ID:   conv.User1ID,
		User2ID:   conv.User2ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.conversations[stored.ID] = stored

	if f.loseCreateRace {
		f.loseCreateRace = false
		return appErrors.ErrConflict
	}

	*conv = *stored
	return nil
}

func (f *fakeChatRepo) GetConversationByID(_ context.Context, id int64) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.conversations[id]
	if !ok {
		return nil, appErrors.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (f *fakeChatRepo) GetConversationByPair(_ context.Context, user1ID, user2ID int64, productID *int64) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv := f.findByPair(user1ID, user2ID, productID)
	if conv == nil {
		return nil, appErrors.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (f *fakeChatRepo) ListConversationsFor(_ context.Context, userID int64, limit, offset int) ([]*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var visible []*domain.Conversation
	for _, conv := range f.conversations {
		if conv.User1ID == userID && !conv.HiddenForUser1 {
			visible = append(visible, conv)
		} else if conv.User2ID == userID && !conv.HiddenForUser2 {
			visible = append(visible, conv)
		}
	}

	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].UpdatedAt.Equal(visible[j].UpdatedAt) {
			return visible[i].UpdatedAt.After(visible[j].UpdatedAt)
		}
		return visible[i].ID > visible[j].ID
	})

	if offset >= len(visible) {
		return nil, nil
	}
	visible = visible[offset:]
	if limit < len(visible) {
		visible = visible[:limit]
	}

	out := make([]*domain.Conversation, len(visible))
	for i, conv := range visible {
		cp := *conv
		out[i] = &cp
	}
	return out, nil
}

func (f *fakeChatRepo) SetHidden(_ context.Context, conversationID, userID int64, hidden bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.conversations[conversationID]
	if !ok || !conv.HasParticipant(userID) {
		return appErrors.ErrConversationNotFound
	}

	if userID == conv.User1ID {
		conv.HiddenForUser1 = hidden
	} else {
		conv.HiddenForUser2 = hidden
	}
	return nil
}

func (f *fakeChatRepo) CreateMessage(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	conv, ok := f.conversations[msg.ConversationID]
	if !ok {
		return appErrors.ErrConversationNotFound
	}

	f.nextMsgID++
	msg.ID = f.nextMsgID
	msg.CreatedAt = f.tick()
	stored := *msg
	f.messages = append(f.messages, &stored)

	conv.UpdatedAt = msg.CreatedAt
	return nil
}

func (f *fakeChatRepo) ListVisibleMessagesMarkingRead(_ context.Context, conversationID, viewerID int64) ([]*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Message
	for _, msg := range f.messages {
		if msg.ConversationID != conversationID || msg.IsDeletedBySender {
			continue
		}
		if msg.SenderID != viewerID && msg.ReadAt == nil {
			readAt := msg.CreatedAt
			msg.ReadAt = &readAt
		}
		cp := *msg
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChatRepo) LastVisibleMessage(_ context.Context, conversationID int64) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var last *domain.Message
	for _, msg := range f.messages {
		if msg.ConversationID != conversationID || msg.IsDeletedBySender {
			continue
		}
		if last == nil || msg.ID > last.ID {
			last = msg
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (f *fakeChatRepo) CountUnread(_ context.Context, conversationID, viewerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID &&
			msg.SenderID != viewerID &&
			msg.ReadAt == nil &&
			!msg.IsDeletedBySender {
			count++
		}
	}
	return count, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[int64]*domain.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	product.ID = f.nextID
	product.CreatedAt = time.Now()
	cp := *product
	f.products[product.ID] = &cp
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, appErrors.ErrProductNotFound
	}
	cp := *product
	return &cp, nil
}

func (f *fakeProductRepo) List(_ context.Context, limit, offset int) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Product
	for _, product := range f.products {
		if product.IsActive {
			cp := *product
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeProductRepo) ListByOwner(_ context.Context, ownerID int64) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*domain.Product
	for _, product := range f.products {
		if product.OwnerID == ownerID {
			cp := *product
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProductRepo) Deactivate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return appErrors.ErrProductNotFound
	}
	product.IsActive = false
	return nil
}

func (f *fakeProductRepo) AddImage(_ context.Context, image *domain.ProductImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[image.ProductID]
	if !ok {
		return appErrors.ErrProductNotFound
	}
	image.ID = int64(len(product.Images) + 1)
	product.Images = append(product.Images, image)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if existing.Email == user.Email {
			return appErrors.ErrEmailTaken
		}
		if existing.Username == user.Username {
			return appErrors.ErrUsernameTaken
		}
	}

	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, appErrors.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.users[user.ID]
	if !ok {
		return appErrors.ErrNotFound
	}
	stored.Username = user.Username
	stored.Bio = user.Bio
	stored.CampusID = user.CampusID
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return appErrors.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, userID int64, avatarURL *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return appErrors.ErrNotFound
	}
	user.AvatarURL = avatarURL
	return nil
}

type fakeCampusRepo struct {
	campuses map[int64]*domain.Campus
}

func newFakeCampusRepo(campuses ...*domain.Campus) *fakeCampusRepo {
	f := &fakeCampusRepo{campuses: make(map[int64]*domain.Campus)}
	for _, campus := range campuses {
		f.campuses[campus.ID] = campus
	}
	return f
}

func (f *fakeCampusRepo) List(_ context.Context) ([]*domain.Campus, error) {
	var out []*domain.Campus
	for _, campus := range f.campuses {
		out = append(out, campus)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeCampusRepo) GetByID(_ context.Context, id int64) (*domain.Campus, error) {
	campus, ok := f.campuses[id]
	if !ok {
		return nil, appErrors.ErrCampusNotFound
	}
	return campus, nil
}
