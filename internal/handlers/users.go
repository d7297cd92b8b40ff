package handlers

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcogenualdo/sanctum-client/internal/api"
	"github.com/marcogenualdo/sanctum-client/internal/config"
)

type account struct {
	user api.User
	hash []byte
}

// UserDirectory holds the emulator's accounts. Passwords are kept only as
// bcrypt hashes.
type UserDirectory struct {
	byEmail map[string]*account
	byID    map[int64]*account
}

func NewUserDirectory(users []config.MockUser, cost int) (*UserDirectory, error) {
	d := &UserDirectory{
		byEmail: make(map[string]*account, len(users)),
		byID:    make(map[int64]*account, len(users)),
	}

	now := time.Now().UTC()
	for i, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}

		name := u.Name
		if name == "" {
			name, _, _ = strings.Cut(u.Email, "@")
		}

		acc := &account{
			user: api.User{
				ID:        int64(i + 1),
				Name:      name,
				Email:     u.Email,
				CreatedAt: now,
			},
			hash: hash,
		}
		d.byEmail[strings.ToLower(u.Email)] = acc
		d.byID[acc.user.ID] = acc
	}

	return d, nil
}

func (d *UserDirectory) Authenticate(email, password string) (api.User, bool) {
	acc, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return api.User{}, false
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return api.User{}, false
	}
	return acc.user, true
}

func (d *UserDirectory) Lookup(id int64) (api.User, bool) {
	acc, ok := d.byID[id]
	if !ok {
		return api.User{}, false
	}
	return acc.user, true
}

func (d *UserDirectory) Len() int { return len(d.byID) }
