package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) seed(u *domain.User) *domain.User {
	r.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user_%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ---------------------------------------------------------------------------
// In-memory task repository
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	tasks     map[string]*domain.Task
	nextID    int
	updates   int
	createErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	return &clone
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	created := cloneTask(task)
	created.ID = fmt.Sprintf("task_%d", r.nextID)
	r.tasks[created.ID] = cloneTask(created)
	return created, nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// List applies the same filters the Mongo repository builds.
func (r *stubTaskRepo) List(_ context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if f.ClientID != "" && t.ClientID != f.ClientID {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				if t.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if !f.DeadlineFrom.IsZero() && !t.Deadline.After(f.DeadlineFrom) {
			continue
		}
		if !f.DeadlineTo.IsZero() && t.Deadline.After(f.DeadlineTo) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, task *domain.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	r.updates++
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *stubTaskRepo) DeleteByClient(_ context.Context, clientID string) (int64, error) {
	var n int64
	for id, t := range r.tasks {
		if t.ClientID == clientID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// In-memory document repository
// ---------------------------------------------------------------------------

type stubDocRepo struct {
	docs      map[string]*domain.Document
	nextID    int
	createErr error
	unlinked  []string
}

func newStubDocRepo() *stubDocRepo {
	return &stubDocRepo{docs: make(map[string]*domain.Document)}
}

func (r *stubDocRepo) Create(_ context.Context, doc *domain.Document) (*domain.Document, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	created := *doc
	created.ID = fmt.Sprintf("doc_%d", r.nextID)
	stored := created
	r.docs[created.ID] = &stored
	return &created, nil
}

func (r *stubDocRepo) FindByID(_ context.Context, id string) (*domain.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDocRepo) List(_ context.Context, f ports.DocumentFilter) ([]*domain.Document, error) {
	var out []*domain.Document
	for _, d := range r.docs {
		if f.ClientID != "" && d.ClientID != f.ClientID {
			continue
		}
		if f.TaskID != "" && d.TaskID != f.TaskID {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubDocRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *stubDocRepo) UnlinkTask(_ context.Context, taskID string) error {
	r.unlinked = append(r.unlinked, taskID)
	for _, d := range r.docs {
		if d.TaskID == taskID {
			d.TaskID = ""
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Storage and notifier stubs
// ---------------------------------------------------------------------------

type stubStorage struct {
	strategy domain.StorageStrategy
	blobs    map[string][]byte
	deleted  []string
	storeErr error
	n        int
}

func newStubStorage(strategy domain.StorageStrategy) *stubStorage {
	return &stubStorage{strategy: strategy, blobs: make(map[string][]byte)}
}

func (s *stubStorage) Strategy() domain.StorageStrategy { return s.strategy }

func (s *stubStorage) Store(_ context.Context, f ports.FileInput) (domain.StorageRef, error) {
	if s.storeErr != nil {
		return domain.StorageRef{}, s.storeErr
	}
	data, err := io.ReadAll(f.Body)
	if err != nil {
		return domain.StorageRef{}, err
	}
	s.n++
	loc := fmt.Sprintf("%s/%d-%s", s.strategy, s.n, f.Name)
	s.blobs[loc] = data
	return domain.StorageRef{Strategy: s.strategy, Location: loc}, nil
}

func (s *stubStorage) Retrieve(_ context.Context, ref domain.StorageRef) (*ports.StoredObject, error) {
	data, ok := s.blobs[ref.Location]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &ports.StoredObject{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

func (s *stubStorage) Delete(_ context.Context, ref domain.StorageRef) error {
	s.deleted = append(s.deleted, ref.Location)
	delete(s.blobs, ref.Location)
	return nil
}

type stubResolver struct {
	active   ports.FileStorage
	backends map[domain.StorageStrategy]ports.FileStorage
}

func newStubResolver(active ports.FileStorage, others ...ports.FileStorage) *stubResolver {
	r := &stubResolver{active: active, backends: map[domain.StorageStrategy]ports.FileStorage{active.Strategy(): active}}
	for _, o := range others {
		r.backends[o.Strategy()] = o
	}
	return r
}

func (r *stubResolver) Active() ports.FileStorage { return r.active }

func (r *stubResolver) For(s domain.StorageStrategy) (ports.FileStorage, error) {
	b, ok := r.backends[s]
	if !ok {
		return nil, domain.ErrStrategyUnavailable
	}
	return b, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *recordingNotifier) events() []domain.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationEvent, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.Event
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func adminUser() *domain.User {
	return &domain.User{ID: "admin_1", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin}
}

func clientUser(id, phone string) *domain.User {
	return &domain.User{ID: id, Name: "Client " + id, Email: id + "@example.com", Phone: phone, Role: domain.RoleClient}
}
