// Package users is the identity edge of the workspace: registration,
// login/logout sessions and profile maintenance. The core only ever sees
// validated user ids; the transport middleware resolves tokens through
// this package before any core operation runs.
package users

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"

	"teamline/pkg/apperr"
	"teamline/pkg/logger"
	"teamline/pkg/models"
	"teamline/pkg/store"
	"teamline/pkg/validation"
)

// sessionCacheSize bounds the token read cache; evictions just cost a
// store lookup.
const sessionCacheSize = 4096

type cachedSession struct {
	uid       int64
	expiresAt int64 // zero means no expiry
}

type Service struct {
	st    *store.Store
	ttl   time.Duration // zero means sessions never expire
	cache *lru.Cache[string, cachedSession]
}

func NewService(st *store.Store, sessionTTL time.Duration) *Service {
	cache, err := lru.New[string, cachedSession](sessionCacheSize)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	return &Service{st: st, ttl: sessionTTL, cache: cache}
}

// AuthResult is what register and login hand back to the transport.
type AuthResult struct {
	Token string `json:"token"`
	UID   int64  `json:"auth_user_id"`
}

// Profile is the public view of a user. Removed users stay readable,
// showing the Removed/user placeholder written by the admin cascade.
type Profile struct {
	UID       int64  `json:"u_id"`
	Email     string `json:"email"`
	NameFirst string `json:"name_first"`
	NameLast  string `json:"name_last"`
	Handle    string `json:"handle_str"`
}

// Register creates a user, derives their handle and opens a session. The
// first registered user is the workspace's global owner.
func (s *Service) Register(email, password, nameFirst, nameLast string) (AuthResult, error) {
	if err := validation.Email(email); err != nil {
		return AuthResult{}, err
	}
	if err := validation.Password(password); err != nil {
		return AuthResult{}, err
	}
	if err := validation.PersonName(nameFirst); err != nil {
		return AuthResult{}, err
	}
	if err := validation.PersonName(nameLast); err != nil {
		return AuthResult{}, err
	}
	if _, err := s.st.UserByEmail(email); err == nil {
		return AuthResult{}, apperr.Validationf("email already in use")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, err
	}
	perm := models.PermMember
	existing, err := s.st.Users()
	if err != nil {
		return AuthResult{}, err
	}
	if len(existing) == 0 {
		perm = models.PermOwner
	}
	handle, err := s.deriveHandle(nameFirst, nameLast)
	if err != nil {
		return AuthResult{}, err
	}
	uid, err := s.st.CreateUser(models.User{
		Email:        email,
		NameFirst:    nameFirst,
		NameLast:     nameLast,
		Handle:       handle,
		PasswordHash: hash,
		Permission:   perm,
	})
	if err != nil {
		return AuthResult{}, err
	}
	logger.Info("user_registered", "uid", uid, "handle", handle)
	return s.openSession(uid)
}

// Login opens a session for a known email/password pair.
func (s *Service) Login(email, password string) (AuthResult, error) {
	u, err := s.st.UserByEmail(email)
	if err != nil {
		return AuthResult{}, apperr.Validationf("email not registered")
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return AuthResult{}, apperr.Validationf("incorrect password")
	}
	return s.openSession(u.ID)
}

// Logout invalidates the session token.
func (s *Service) Logout(token string) error {
	s.cache.Remove(token)
	return s.st.DeleteSession(token)
}

// Resolve maps a session token to a user id; unknown tokens surface as a
// permission failure at the auth edge, never a core error. Hot tokens
// answer from the LRU cache without touching the store.
func (s *Service) Resolve(token string) (int64, error) {
	if c, ok := s.cache.Get(token); ok {
		if c.expiresAt == 0 || time.Now().Unix() < c.expiresAt {
			return c.uid, nil
		}
		s.cache.Remove(token)
	}
	uid, expires, err := s.st.Session(token)
	if err != nil {
		return 0, apperr.Permissionf("invalid token")
	}
	s.cache.Add(token, cachedSession{uid: uid, expiresAt: expires})
	return uid, nil
}

// Revoke drops every session of a user, cache included. The admin
// cascade calls this when removing a user.
func (s *Service) Revoke(uid int64) error {
	for _, token := range s.cache.Keys() {
		if c, ok := s.cache.Peek(token); ok && c.uid == uid {
			s.cache.Remove(token)
		}
	}
	return s.st.DeleteSessionsFor(uid)
}

// Reset purges the session cache; workspace clear only.
func (s *Service) Reset() {
	s.cache.Purge()
}

// Profile returns the public view of any registered user, removed ones
// included.
func (s *Service) Profile(uid int64) (Profile, error) {
	u, err := s.st.User(uid)
	if err != nil {
		return Profile{}, apperr.Validationf("user %d does not exist", uid)
	}
	return publicProfile(u), nil
}

// All lists every non-removed user.
func (s *Service) All() ([]Profile, error) {
	us, err := s.st.Users()
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(us))
	for _, u := range us {
		if u.Removed {
			continue
		}
		out = append(out, publicProfile(u))
	}
	return out, nil
}

// SetName updates the caller's first/last name.
func (s *Service) SetName(caller int64, first, last string) error {
	if err := validation.PersonName(first); err != nil {
		return err
	}
	if err := validation.PersonName(last); err != nil {
		return err
	}
	_, err := s.st.UpdateUser(caller, func(u *models.User) error {
		u.NameFirst, u.NameLast = first, last
		return nil
	})
	return err
}

// SetEmail updates the caller's email, keeping emails unique.
func (s *Service) SetEmail(caller int64, email string) error {
	if err := validation.Email(email); err != nil {
		return err
	}
	if other, err := s.st.UserByEmail(email); err == nil && other.ID != caller {
		return apperr.Validationf("email already in use")
	}
	_, err := s.st.UpdateUser(caller, func(u *models.User) error {
		u.Email = email
		return nil
	})
	return err
}

// SetHandle updates the caller's handle, keeping handles unique.
func (s *Service) SetHandle(caller int64, handle string) error {
	if err := validation.Handle(handle); err != nil {
		return err
	}
	if other, err := s.st.UserByHandle(handle); err == nil && other.ID != caller {
		return apperr.Validationf("handle already in use")
	}
	_, err := s.st.UpdateUser(caller, func(u *models.User) error {
		u.Handle = handle
		return nil
	})
	return err
}

func (s *Service) openSession(uid int64) (AuthResult, error) {
	token := uuid.NewString()
	var expires int64
	if s.ttl > 0 {
		expires = time.Now().Add(s.ttl).Unix()
	}
	if err := s.st.PutSession(token, uid, expires); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, UID: uid}, nil
}

// deriveHandle builds the lowercased alphanumeric concatenation of the
// names, capped at 20 characters; collisions get a numeric suffix which
// may push past the cap.
func (s *Service) deriveHandle(first, last string) (string, error) {
	base := validation.HandleBase(first, last)
	if base == "" {
		base = "user"
	}
	if _, err := s.st.UserByHandle(base); err != nil {
		return base, nil
	}
	for i := 0; ; i++ {
		candidate := base + strconv.Itoa(i)
		if _, err := s.st.UserByHandle(candidate); err != nil {
			return candidate, nil
		}
	}
}

func publicProfile(u models.User) Profile {
	return Profile{
		UID:       u.ID,
		Email:     u.Email,
		NameFirst: u.NameFirst,
		NameLast:  u.NameLast,
		Handle:    u.Handle,
	}
}
