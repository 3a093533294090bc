package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lborres/guildhall/core"
)

// FakeStorageProvider is a test-only fake implementing core.StorageAdapter.
// It keeps every table in maps, enforces the same uniqueness and cascade
// rules as the SQL schema, and exposes error injection per method.
type FakeStorageProvider struct {
	mu         sync.RWMutex
	accounts   map[string]*core.Account
	emails     map[string]string
	profiles   map[string]*core.Profile
	characters map[string]*core.Character
	items      map[string]*core.Item
	revoked    map[string]time.Time

	failures map[string]error
	writes   int
	now      func() time.Time
}

var _ core.StorageAdapter = (*FakeStorageProvider)(nil)

func NewFakeStorageProvider() *FakeStorageProvider {
	return &FakeStorageProvider{
		accounts:   make(map[string]*core.Account),
		emails:     make(map[string]string),
		profiles:   make(map[string]*core.Profile),
		characters: make(map[string]*core.Character),
		items:      make(map[string]*core.Item),
		revoked:    make(map[string]time.Time),
		failures:   make(map[string]error),
		now:        time.Now,
	}
}

// FailWith makes every later call to method return err
func (f *FakeStorageProvider) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Writes counts successful mutations
func (f *FakeStorageProvider) Writes() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.writes
}

func (f *FakeStorageProvider) fail(method string) error {
	return f.failures[method]
}

func (f *FakeStorageProvider) Ping(ctx context.Context) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fail("Ping")
}

// ============================================
// AccountStorage
// ============================================

func (f *FakeStorageProvider) CreateAccount(ctx context.Context, a *core.Account, p *core.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateAccount"); err != nil {
		return err
	}

	email := strings.ToLower(a.Email)
	if _, taken := f.emails[email]; taken {
		return core.ErrEmailTaken
	}

	now := f.now()
	a.CreatedAt, a.UpdatedAt = now, now
	p.AccountID = a.ID
	p.UpdatedAt = now

	acc := *a
	prof := *p
	f.accounts[a.ID] = &acc
	f.emails[email] = a.ID
	f.profiles[a.ID] = &prof
	f.writes++
	return nil
}

func (f *FakeStorageProvider) GetAccountByID(ctx context.Context, id string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("GetAccountByID"); err != nil {
		return nil, err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *FakeStorageProvider) GetAccountByEmail(ctx context.Context, email string) (*core.Account, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("GetAccountByEmail"); err != nil {
		return nil, err
	}
	id, ok := f.emails[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	cp := *f.accounts[id]
	return &cp, nil
}

func (f *FakeStorageProvider) GetAccountDetails(ctx context.Context, id string) (*core.AccountDetails, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("GetAccountDetails"); err != nil {
		return nil, err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	return &core.AccountDetails{
		AccountID: a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		Profile:   *f.profiles[id],
	}, nil
}

func (f *FakeStorageProvider) UpdateProfile(ctx context.Context, accountID string, u core.ProfileUpdate) (*core.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateProfile"); err != nil {
		return nil, err
	}
	p, ok := f.profiles[accountID]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	p.UpdatedAt = f.now()
	f.writes++
	cp := *p
	return &cp, nil
}

func (f *FakeStorageProvider) UpdatePasswordHash(ctx context.Context, accountID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdatePasswordHash"); err != nil {
		return err
	}
	a, ok := f.accounts[accountID]
	if !ok {
		return core.ErrAccountNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = f.now()
	f.writes++
	return nil
}

// DeleteAccount cascades to the profile and every owned resource
func (f *FakeStorageProvider) DeleteAccount(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteAccount"); err != nil {
		return err
	}
	a, ok := f.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}

	delete(f.emails, strings.ToLower(a.Email))
	delete(f.accounts, id)
	delete(f.profiles, id)
	for k, c := range f.characters {
		if c.AccountID == id {
			delete(f.characters, k)
		}
	}
	for k, i := range f.items {
		if i.AccountID == id {
			delete(f.items, k)
		}
	}
	f.writes++
	return nil
}

// ============================================
// CharacterStorage
// ============================================

func (f *FakeStorageProvider) CreateCharacter(ctx context.Context, c *core.Character) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateCharacter"); err != nil {
		return err
	}
	if _, ok := f.accounts[c.AccountID]; !ok {
		return core.ErrAccountNotFound
	}
	now := f.now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	f.characters[c.ID] = &cp
	f.writes++
	return nil
}

func (f *FakeStorageProvider) GetCharacter(ctx context.Context, id string) (*core.Character, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("GetCharacter"); err != nil {
		return nil, err
	}
	c, ok := f.characters[id]
	if !ok {
		return nil, core.ErrCharacterNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeStorageProvider) ListCharacters(ctx context.Context) ([]*core.Character, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("ListCharacters"); err != nil {
		return nil, err
	}
	out := make([]*core.Character, 0, len(f.characters))
	for _, c := range f.characters {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeStorageProvider) RenameCharacter(ctx context.Context, id, ownerID, name string) (*core.Character, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RenameCharacter"); err != nil {
		return nil, err
	}
	c, ok := f.characters[id]
	if !ok || c.AccountID != ownerID {
		return nil, core.ErrCharacterNotFound
	}
	c.Name = name
	c.UpdatedAt = f.now()
	f.writes++
	cp := *c
	return &cp, nil
}

func (f *FakeStorageProvider) DeleteCharacter(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteCharacter"); err != nil {
		return err
	}
	c, ok := f.characters[id]
	if !ok || c.AccountID != ownerID {
		return core.ErrCharacterNotFound
	}
	delete(f.characters, id)
	f.writes++
	return nil
}

// ============================================
// ItemStorage
// ============================================

func (f *FakeStorageProvider) CreateItem(ctx context.Context, i *core.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateItem"); err != nil {
		return err
	}
	if _, ok := f.accounts[i.AccountID]; !ok {
		return core.ErrAccountNotFound
	}
	now := f.now()
	i.CreatedAt, i.UpdatedAt = now, now
	cp := *i
	f.items[i.ID] = &cp
	f.writes++
	return nil
}

func (f *FakeStorageProvider) GetItem(ctx context.Context, id string) (*core.Item, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("GetItem"); err != nil {
		return nil, err
	}
	i, ok := f.items[id]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *FakeStorageProvider) ListItems(ctx context.Context) ([]*core.Item, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("ListItems"); err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(f.items))
	for _, i := range f.items {
		cp := *i
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (f *FakeStorageProvider) UpdateItem(ctx context.Context, id, ownerID string, u core.ItemUpdate) (*core.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateItem"); err != nil {
		return nil, err
	}
	i, ok := f.items[id]
	if !ok || i.AccountID != ownerID {
		return nil, core.ErrItemNotFound
	}
	if u.Name != nil {
		i.Name = *u.Name
	}
	if u.HP != nil {
		i.HP = *u.HP
	}
	if u.Power != nil {
		i.Power = *u.Power
	}
	if u.Price != nil {
		i.Price = *u.Price
	}
	i.UpdatedAt = f.now()
	f.writes++
	cp := *i
	return &cp, nil
}

func (f *FakeStorageProvider) DeleteItem(ctx context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteItem"); err != nil {
		return err
	}
	i, ok := f.items[id]
	if !ok || i.AccountID != ownerID {
		return core.ErrItemNotFound
	}
	delete(f.items, id)
	f.writes++
	return nil
}

// ============================================
// RevocationStorage
// ============================================

func (f *FakeStorageProvider) RevokeToken(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("RevokeToken"); err != nil {
		return err
	}
	if _, ok := f.revoked[tokenID]; ok {
		return nil
	}
	f.revoked[tokenID] = expiresAt
	f.writes++
	return nil
}

func (f *FakeStorageProvider) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err := f.fail("IsTokenRevoked"); err != nil {
		return false, err
	}
	_, ok := f.revoked[tokenID]
	return ok, nil
}

func (f *FakeStorageProvider) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteExpiredRevocations"); err != nil {
		return 0, err
	}
	var n int64
	for id, exp := range f.revoked {
		if !exp.After(now) {
			delete(f.revoked, id)
			n++
		}
	}
	return n, nil
}

// ============================================
// Crypto
// ============================================

// FakeHasher is a reversible core.PasswordHasher that counts its calls.
type FakeHasher struct {
	mu        sync.Mutex
	hashes    int
	verifies  int
	Upgrade   bool
	HashErr   error
	VerifyErr error
}

var _ core.PasswordHasher = (*FakeHasher)(nil)

func (h *FakeHasher) Hash(password string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes++
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "fake$" + password, nil
}

func (h *FakeHasher) Verify(password, hash string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifies++
	if h.VerifyErr != nil {
		return false, h.VerifyErr
	}
	return hash == "fake$"+password, nil
}

func (h *FakeHasher) NeedsUpgrade(hash string) bool {
	return h.Upgrade
}

func (h *FakeHasher) Hashes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *FakeHasher) Verifies() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}
