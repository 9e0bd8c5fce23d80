package oauth

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/unreadapp/unread/app/models"
)

// fakeIdentityStore is an in-memory IdentityStore. It enforces the same
// unique constraints as the database and reports violations with
// gorm.ErrDuplicatedKey, so the resolver's conflict paths behave as in
// production.
type fakeIdentityStore struct {
	mu         sync.Mutex
	nextID     uint
	users      map[uint]*models.User
	identities map[string]uint // "provider:uid" -> user id
	usernames  map[string]uint
	touched    map[uint]int

	beforeCreate func(s *fakeIdentityStore)
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{
		users:      map[uint]*models.User{},
		identities: map[string]uint{},
		usernames:  map[string]uint{},
		touched:    map[uint]int{},
	}
}

func identityKey(provider, uid string) string {
	return provider + ":" + uid
}

func (s *fakeIdentityStore) FindUserByIdentity(provider, providerUserID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.identities[identityKey(provider, providerUserID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.users[userID], nil
}

func (s *fakeIdentityStore) CreateUserWithIdentity(user *models.User, identity *models.Identity) error {
	if s.beforeCreate != nil {
		hook := s.beforeCreate
		s.beforeCreate = nil
		hook(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.identities[identityKey(identity.Provider, identity.ProviderUserID)]; taken {
		return gorm.ErrDuplicatedKey
	}
	if _, taken := s.usernames[user.Username]; taken {
		return gorm.ErrDuplicatedKey
	}

	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	s.usernames[user.Username] = user.ID
	s.identities[identityKey(identity.Provider, identity.ProviderUserID)] = user.ID
	return nil
}

func (s *fakeIdentityStore) AttachIdentity(identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey(identity.Provider, identity.ProviderUserID)
	if _, taken := s.identities[key]; taken {
		return gorm.ErrDuplicatedKey
	}
	s.identities[key] = identity.UserID
	return nil
}

func (s *fakeIdentityStore) UsernameExists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.usernames[username]
	return taken, nil
}

func (s *fakeIdentityStore) TouchLastLogin(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[userID]++
	return nil
}

func (s *fakeIdentityStore) GetByID(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *fakeIdentityStore) seedUser(username string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user := &models.User{Username: username, Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	user.ID = s.nextID
	s.users[user.ID] = user
	s.usernames[username] = user.ID
	return user
}

func googleIdentity(uid, email string) *Identity {
	return &Identity{
		Provider:       ProviderGoogle,
		ProviderUserID: uid,
		Email:          email,
	}
}

func TestResolveFirstLoginCreatesUser(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)

	ident := googleIdentity("g-1", "reader@example.com")
	ident.Name = "Avid Reader"
	ident.AvatarURL = "https://lh3.example.com/photo.jpg"

	user, err := resolver.Resolve(ident, 0)
	require.NoError(t, err)

	assert.Equal(t, "reader", user.Username)
	assert.Equal(t, models.ROLE_USER, user.Role)
	assert.Equal(t, models.STATUS_ACTIVE, user.Status)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", user.AvatarURL)
	assert.NotNil(t, user.LastLoginAt)
}

func TestResolveRepeatLoginIsIdempotent(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)
	ident := googleIdentity("g-1", "reader@example.com")

	first, err := resolver.Resolve(ident, 0)
	require.NoError(t, err)

	second, err := resolver.Resolve(ident, 0)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.users, 1)
	assert.Equal(t, 1, store.touched[first.ID])
}

func TestResolveGravatarFallback(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)

	user, err := resolver.Resolve(googleIdentity("g-1", "reader@example.com"), 0)
	require.NoError(t, err)
	assert.Contains(t, user.AvatarURL, "gravatar.com")
}

func TestResolveUsernameCollisionGetsSuffix(t *testing.T) {
	store := newFakeIdentityStore()
	store.seedUser("reader")
	resolver := NewResolver(store)

	user, err := resolver.Resolve(googleIdentity("g-1", "reader@example.com"), 0)
	require.NoError(t, err)
	assert.Equal(t, "reader_1", user.Username)
}

func TestResolveConcurrentFirstLoginResolvesToWinner(t *testing.T) {
	store := newFakeIdentityStore()
	ident := googleIdentity("g-1", "reader@example.com")

	// A concurrent request inserts the same identity between our probe
	// and insert; the duplicate-key failure must resolve to that user.
	var winner *models.User
	store.beforeCreate = func(s *fakeIdentityStore) {
		winner = s.seedUser("reader")
		s.mu.Lock()
		s.identities[identityKey(ident.Provider, ident.ProviderUserID)] = winner.ID
		s.mu.Unlock()
	}

	user, err := NewResolver(store).Resolve(ident, 0)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, user.ID)
	assert.Len(t, store.users, 1)
	assert.Equal(t, 1, store.touched[winner.ID])
}

func TestResolveParallelLoginsCreateOneUser(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)
	ident := googleIdentity("g-1", "reader@example.com")

	var wg sync.WaitGroup
	ids := make([]uint, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := resolver.Resolve(ident, 0)
			if assert.NoError(t, err) {
				ids[i] = user.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.users, 1)
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestResolveLinkAttachesIdentity(t *testing.T) {
	store := newFakeIdentityStore()
	owner := store.seedUser("reader")
	resolver := NewResolver(store)

	user, err := resolver.Resolve(&Identity{
		Provider:       ProviderApple,
		ProviderUserID: "a-1",
		Email:          "relay@privaterelay.appleid.com",
	}, owner.ID)
	require.NoError(t, err)

	assert.Equal(t, owner.ID, user.ID)
	assert.Equal(t, owner.ID, store.identities[identityKey(ProviderApple, "a-1")])
}

func TestResolveLinkOwnIdentityIsNoop(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)
	ident := googleIdentity("g-1", "reader@example.com")

	user, err := resolver.Resolve(ident, 0)
	require.NoError(t, err)

	linked, err := resolver.Resolve(ident, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)
}

func TestResolveLinkConflict(t *testing.T) {
	store := newFakeIdentityStore()
	resolver := NewResolver(store)
	ident := googleIdentity("g-1", "reader@example.com")

	owner, err := resolver.Resolve(ident, 0)
	require.NoError(t, err)

	other := store.seedUser("other")
	_, err = resolver.Resolve(ident, other.ID)
	assert.ErrorIs(t, err, ErrIdentityAlreadyLinked)
	assert.Equal(t, owner.ID, store.identities[identityKey(ident.Provider, ident.ProviderUserID)])
}

func TestResolveUsernameFallbacks(t *testing.T) {
	cases := []struct {
		name  string
		ident Identity
		want  string
	}{
		{"from email local part", Identity{Email: "Jane.Doe@example.com"}, "jane_doe"},
		{"from display name", Identity{Name: "Jane Doe"}, "jane_doe"},
		{"from subject when nothing usable", Identity{ProviderUserID: "1234567890"}, "user_12345678"},
		{"too short after sanitizing", Identity{Name: "!!", ProviderUserID: "abcdef"}, "user_abcdef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeIdentityStore()
			ident := tc.ident
			ident.Provider = ProviderGoogle
			if ident.ProviderUserID == "" {
				ident.ProviderUserID = fmt.Sprintf("uid-%s", tc.name)
			}
			user, err := NewResolver(store).Resolve(&ident, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, user.Username)
		})
	}
}
