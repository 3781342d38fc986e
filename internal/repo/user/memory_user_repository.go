package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/homecase-checkout/internal/domain"
)

// MemoryUserRepository implements Repository in process memory.
// Without UniqueEmail it accepts several records for one email, like a
// collection without a unique index; lookups return the earliest one.
type MemoryUserRepository struct {
	users       []domain.User
	uniqueEmail bool
	m           sync.Mutex
}

var _ Repository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository(uniqueEmail bool) *MemoryUserRepository {
	return &MemoryUserRepository{uniqueEmail: uniqueEmail}
}

func (r *MemoryUserRepository) find(email string) (*domain.User, bool) {
	for i := range r.users {
		if r.users[i].Email == email {
			u := r.users[i]

			return &u, true
		}
	}

	return nil, false
}

func (r *MemoryUserRepository) insert(user *domain.User) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().Unix()
	r.users = append(r.users, *user)
}

// FindUserByEmail implements Repository.FindUserByEmail.
func (r *MemoryUserRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	r.m.Lock()
	defer r.m.Unlock()

	if u, ok := r.find(email); ok {
		return u, true, nil
	}

	return nil, false, fmt.Errorf("find %q: %w", email, domain.ErrUserNotFound)
}

// CreateUser implements Repository.CreateUser.
func (r *MemoryUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	r.m.Lock()
	defer r.m.Unlock()

	if _, exists := r.find(user.Email); exists && r.uniqueEmail {
		return fmt.Errorf("insert user: %w", domain.ErrUserAlreadyExists)
	}

	r.insert(user)

	return nil
}

// CreateUserIfAbsent implements Repository.CreateUserIfAbsent.
func (r *MemoryUserRepository) CreateUserIfAbsent(_ context.Context, user *domain.User) (*domain.User, bool, error) {
	r.m.Lock()
	defer r.m.Unlock()

	if existing, ok := r.find(user.Email); ok {
		return existing, false, nil
	}

	r.insert(user)
	stored := *user

	return &stored, true, nil
}

// UsersByEmail returns copies of all records stored under email, oldest first.
func (r *MemoryUserRepository) UsersByEmail(email string) []domain.User {
	r.m.Lock()
	defer r.m.Unlock()

	var out []domain.User

	for _, u := range r.users {
		if u.Email == email {
			out = append(out, u)
		}
	}

	return out
}

// Len returns the number of stored records.
func (r *MemoryUserRepository) Len() int {
	r.m.Lock()
	defer r.m.Unlock()

	return len(r.users)
}

// Close implements Repository.Close.
func (r *MemoryUserRepository) Close() error {
	return nil
}
