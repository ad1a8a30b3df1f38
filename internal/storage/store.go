package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
)

type metaData struct {
	Projects map[string]domain.Project `json:"projects"`
}

// Store persists project sessions as a single JSON file. The pipeline core
// never touches it; handlers load a project, run stages against the value,
// and save the result back.
type Store struct {
	mu   sync.RWMutex
	path string
	data metaData
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "meta.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = metaData{Projects: map[string]domain.Project{}}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open meta file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.data); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode meta file: %w", err)
	}

	s.ensureMaps()
	return nil
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) CreateProject(project domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMaps()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = domain.StatusDraft
	}
	now := time.Now().Unix()
	if project.CreatedAt == 0 {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	s.data.Projects[project.ID] = project

	if err := s.saveLocked(); err != nil {
		return domain.Project{}, err
	}

	return project, nil
}

func (s *Store) ListProjects() []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]domain.Project, 0, len(s.data.Projects))
	for _, project := range s.data.Projects {
		projects = append(projects, project)
	}
	return projects
}

func (s *Store) GetProject(id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.data.Projects[id]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s not found", id)
	}
	return project, nil
}

func (s *Store) UpdateProject(project domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.data.Projects[project.ID]
	if !ok {
		return domain.Project{}, fmt.Errorf("project %s not found", project.ID)
	}

	if project.CreatedAt == 0 {
		project.CreatedAt = existing.CreatedAt
	}
	if project.Status == "" {
		project.Status = existing.Status
	}

	project.UpdatedAt = time.Now().Unix()
	s.data.Projects[project.ID] = project

	if err := s.saveLocked(); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Projects[id]; !ok {
		return fmt.Errorf("project %s not found", id)
	}

	delete(s.data.Projects, id)

	return s.saveLocked()
}

// FindProjectByVideoID resolves a rendered artifact id back to its project.
func (s *Store) FindProjectByVideoID(videoID string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, project := range s.data.Projects {
		if project.Render != nil && project.Render.VideoID == videoID {
			return project, nil
		}
	}
	return domain.Project{}, fmt.Errorf("video %s not found", videoID)
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "meta-*.json")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode meta: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp meta: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace meta file: %w", err)
	}

	return nil
}

func (s *Store) ensureMaps() {
	if s.data.Projects == nil {
		s.data.Projects = map[string]domain.Project{}
	}
}
