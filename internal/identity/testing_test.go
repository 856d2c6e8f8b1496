package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"identity-server/configs"
	"identity-server/internal/models"
)

// fakeClock lets tests replay exact timelines.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore is an in-memory UserStore.
type fakeStore struct {
	users       map[string]*models.User
	updateCalls int
	failUpdate  error
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) FindBySiteAndEmail(_ context.Context, siteID uint, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindBySiteAndPhoneNumber(_ context.Context, siteID uint, phoneNumber string) (*models.User, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && u.PhoneNumber == phoneNumber {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindBySiteAndCredential(_ context.Context, siteID uint, credential string) (*models.User, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && (u.Email == credential || u.PhoneNumber == credential) {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByGoogleSub(_ context.Context, siteID uint, sub string) (*models.User, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && u.GoogleSub == sub {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ExistsBySiteAndEmail(_ context.Context, siteID uint, email string) (bool, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && (u.Email == email || u.EmailCandidate == email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ExistsBySiteAndPhoneNumber(_ context.Context, siteID uint, phoneNumber string) (bool, error) {
	for _, u := range s.users {
		if u.SiteID == siteID && (u.PhoneNumber == phoneNumber || u.PhoneNumberCandidate == phoneNumber) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Create(_ context.Context, user *models.User) error {
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("duplicate user id %s", user.ID)
	}
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) Update(_ context.Context, user *models.User) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.updateCalls++
	s.users[user.ID] = user
	return nil
}

// sentMessage records one dispatched email or SMS.
type sentMessage struct {
	Destination string
	Subject     string
	Body        string
}

type capturingSenders struct {
	emails []sentMessage
	sms    []sentMessage
}

func (c *capturingSenders) emailSender() EmailSender {
	return func(destination, subject, htmlBody string) error {
		c.emails = append(c.emails, sentMessage{Destination: destination, Subject: subject, Body: htmlBody})
		return nil
	}
}

func (c *capturingSenders) smsSender() SMSSender {
	return func(destination, body string) error {
		c.sms = append(c.sms, sentMessage{Destination: destination, Body: body})
		return nil
	}
}

func testIdentityConfig() *configs.IdentityConfig {
	cfg := &configs.IdentityConfig{Domain: "example.com"}
	cfg.ApplyDefaults()
	return cfg
}
