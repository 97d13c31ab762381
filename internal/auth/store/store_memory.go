package store

import (
	"context"
	"strings"
	"sync"

	"cartera/internal/auth/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// In-memory stores keep development and unit tests lightweight. They
// intentionally favor clarity over performance.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]models.Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]models.Session)}
}

func (s *InMemorySessionStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		copied := session
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemorySessionStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

type InMemoryMemberStore struct {
	mu      sync.RWMutex
	members map[string]models.Member
}

func NewInMemoryMemberStore() *InMemoryMemberStore {
	return &InMemoryMemberStore{members: make(map[string]models.Member)}
}

func memberKey(projectID id.ProjectID, email string) string {
	return projectID.String() + "/" + strings.ToLower(email)
}

func (s *InMemoryMemberStore) Save(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(member.ProjectID, member.Email)] = *member
	return nil
}

func (s *InMemoryMemberStore) FindByEmail(_ context.Context, projectID id.ProjectID, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if member, ok := s.members[memberKey(projectID, email)]; ok {
		copied := member
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
