// Package session manages user sessions for batch signature stamping.
//
// Types:
//   - Session: the editing state of one user: uploaded target PDFs in batch
//     order, the signature asset, the current placement, the reference
//     geometry of the open editor and the last generated archive.
//   - SessionManager: Manages all active sessions.
//
// Expected outputs:
// - Session IDs are unique (UUID)
// - Files are tracked per session
// - Cleanup removes all files for a session
//
// Used by API handlers to manage user state.
package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-stamppdf/internal/geometry"
	"go-stamppdf/internal/placement"
	"go-stamppdf/internal/signature"
	"go-stamppdf/internal/utils"
)

// Sign status values.
const (
	StatusIdle       = "idle"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// ErrSignInProgress is returned by BeginSign while another batch runs.
var ErrSignInProgress = errors.New("signing already in progress")

// File is one uploaded target document.
type File struct {
	Path string // location on disk
	Name string // name the user uploaded it as
}

// StoredName is the unique name the file is addressed by in the API.
func (f File) StoredName() string {
	return filepath.Base(f.Path)
}

type Session struct {
	ID         string
	Files      []File
	Signature  *signature.Asset
	Placement  placement.Placement
	Reference  *geometry.ReferenceGeometry
	OutputFile string
	CreatedAt  time.Time
	LastActive time.Time
	SignStatus string
	Mutex      sync.Mutex
}

type SessionManager struct {
	Sessions map[string]*Session
	Mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Sessions: make(map[string]*Session),
	}
}

// CreateSession starts a session whose editor opens at p.
func (sm *SessionManager) CreateSession(p placement.Placement) *Session {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()

	now := time.Now()
	session := &Session{
		ID:         utils.GenerateUUID(),
		Files:      []File{},
		Placement:  p,
		CreatedAt:  now,
		LastActive: now,
		SignStatus: StatusIdle,
	}
	sm.Sessions[session.ID] = session
	return session
}

// GetSession returns the session and marks it active.
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.Mutex.RLock()
	session, exists := sm.Sessions[id]
	sm.Mutex.RUnlock()
	if exists {
		session.Touch()
	}
	return session, exists
}

func (sm *SessionManager) DeleteSession(id string) {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	delete(sm.Sessions, id)
}

// Sweep removes sessions idle for longer than ttl, deleting their files.
// Sessions with a batch in progress are kept. It returns the number removed.
func (sm *SessionManager) Sweep(ttl time.Duration) int {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	removed := 0
	for id, session := range sm.Sessions {
		if !session.Expired(ttl) {
			continue
		}
		session.Cleanup()
		delete(sm.Sessions, id)
		removed++
	}
	return removed
}

// Len returns the number of live sessions.
func (sm *SessionManager) Len() int {
	sm.Mutex.RLock()
	defer sm.Mutex.RUnlock()
	return len(sm.Sessions)
}

func (s *Session) Touch() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.LastActive = time.Now()
}

// Expired reports whether the session has been idle for longer than ttl.
func (s *Session) Expired(ttl time.Duration) bool {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.SignStatus != StatusInProgress && time.Since(s.LastActive) > ttl
}

func (s *Session) AddFile(f File) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Files = append(s.Files, f)
}

func (s *Session) SetFiles(files []File) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Files = files
}

// GetFiles returns a copy of the files in batch order.
func (s *Session) GetFiles() []File {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return append([]File(nil), s.Files...)
}

// SetSignature replaces the signature asset. The open editor stays valid.
func (s *Session) SetSignature(a *signature.Asset) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Signature = a
}

func (s *Session) GetSignature() *signature.Asset {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.Signature
}

func (s *Session) GetPlacement() placement.Placement {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.Placement
}

func (s *Session) SetPlacement(p placement.Placement) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Placement = p
}

// UpdatePlacement applies fn to the current placement atomically and
// returns the result.
func (s *Session) UpdatePlacement(fn func(placement.Placement) placement.Placement) placement.Placement {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Placement = fn(s.Placement)
	return s.Placement
}

// SetReference records the geometry of a newly opened editor.
func (s *Session) SetReference(ref geometry.ReferenceGeometry) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Reference = &ref
}

// GetReference returns the open editor's geometry; ok is false until the
// editor has been opened.
func (s *Session) GetReference() (ref geometry.ReferenceGeometry, ok bool) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.Reference == nil {
		return geometry.ReferenceGeometry{}, false
	}
	return *s.Reference, true
}

// BeginSign marks a batch as running.
func (s *Session) BeginSign() error {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if s.SignStatus == StatusInProgress {
		return ErrSignInProgress
	}
	s.SignStatus = StatusInProgress
	return nil
}

// FinishSign ends a batch. A non-empty output replaces, and deletes, the
// previous archive.
func (s *Session) FinishSign(output string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	if output == "" {
		s.SignStatus = StatusIdle
		return
	}
	if s.OutputFile != "" && s.OutputFile != output {
		os.Remove(s.OutputFile)
	}
	s.OutputFile = output
	s.SignStatus = StatusDone
}

func (s *Session) GetOutputFile() string {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	return s.OutputFile
}

func (s *Session) Cleanup() {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	for _, file := range s.Files {
		os.Remove(file.Path)
	}
	if s.OutputFile != "" {
		os.Remove(s.OutputFile)
	}
}
