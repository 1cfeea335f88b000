package service

import (
	"slices"
	"strings"

	"github.com/TWRT/taskflow/internal/models"
)

// Snapshot is the working copy of one owner's tasks for a single chatbot
// turn. Tools read and mutate it instead of re-querying the store, so the
// caller gets back exactly the list the tools acted on. A Snapshot must not
// be shared between concurrent turns.
type Snapshot struct {
	ownerID string
	tasks   []models.Task
}

// NewSnapshot copies tasks; later changes to either side are not shared.
// Tasks that carry another owner's id are left out. Tasks without an owner
// id are taken as the caller's.
func NewSnapshot(ownerID string, tasks []models.Task) *Snapshot {
	owned := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.OwnerID != "" && t.OwnerID != ownerID {
			continue
		}
		owned = append(owned, t)
	}
	return &Snapshot{ownerID: ownerID, tasks: owned}
}

func (s *Snapshot) OwnerID() string {
	return s.ownerID
}

// Tasks returns a copy of the current task list. It is never nil.
func (s *Snapshot) Tasks() []models.Task {
	if len(s.tasks) == 0 {
		return []models.Task{}
	}
	return slices.Clone(s.tasks)
}

func (s *Snapshot) Len() int {
	return len(s.tasks)
}

func (s *Snapshot) add(t models.Task) {
	s.tasks = append(s.tasks, t)
}

// indexByTitle returns the first task, in snapshot order, whose title equals
// title ignoring case and surrounding whitespace.
func (s *Snapshot) indexByTitle(title string) int {
	want := strings.TrimSpace(title)
	return slices.IndexFunc(s.tasks, func(t models.Task) bool {
		return strings.EqualFold(strings.TrimSpace(t.Title), want)
	})
}

func (s *Snapshot) removeAt(i int) {
	s.tasks = slices.Delete(s.tasks, i, i+1)
}
