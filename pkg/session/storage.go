package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultStorageFileName = ".rampa-sessions.json"
)

// Storage handles persistence of payout sessions and the user profile
type Storage struct {
	filePath string
	mu       sync.RWMutex
	sessions map[string]*PayoutSession
	profile  Profile
}

// fileLayout represents the JSON structure for storage
type fileLayout struct {
	Profile  Profile                   `json:"profile"`
	Sessions map[string]*PayoutSession `json:"sessions"`
}

// NewStorage creates a new storage instance backed by the given file, or a
// default file in the home directory
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{
		filePath: filePath,
		sessions: make(map[string]*PayoutSession),
		profile:  Profile{KYC: KYCPending},
	}

	// Load existing state if the file exists; created on first save otherwise
	if err := storage.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load sessions: %w", err)
		}
	}

	return storage, nil
}

// load reads sessions from the storage file
func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("failed to unmarshal sessions: %w", err)
	}

	s.sessions = layout.Sessions
	if s.sessions == nil {
		s.sessions = make(map[string]*PayoutSession)
	}
	s.profile = layout.Profile
	if s.profile.KYC == "" {
		s.profile.KYC = KYCPending
	}

	return nil
}

// save writes sessions to the storage file
func (s *Storage) save() error {
	s.mu.RLock()
	layout := fileLayout{
		Profile:  s.profile,
		Sessions: s.sessions,
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Create adds a new session to storage
func (s *Storage) Create(session *PayoutSession) error {
	s.mu.Lock()
	if _, exists := s.sessions[session.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("session '%s' already exists", session.ID)
	}
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return s.save()
}

// Get retrieves a session by ID
func (s *Storage) Get(id string) (*PayoutSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session '%s' not found", id)
	}
	return session, nil
}

// Update modifies an existing session
func (s *Storage) Update(session *PayoutSession) error {
	s.mu.Lock()
	if _, exists := s.sessions[session.ID]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("session '%s' not found", session.ID)
	}
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return s.save()
}

// List returns all sessions
func (s *Storage) List() []*PayoutSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*PayoutSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Profile returns the stored user profile
func (s *Storage) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile replaces the stored user profile
func (s *Storage) SetProfile(profile Profile) error {
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	return s.save()
}

// GetFilePath returns the storage file path
func (s *Storage) GetFilePath() string {
	return s.filePath
}
