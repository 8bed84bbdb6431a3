package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type InMemoryCommandsStore struct {
	mu       sync.RWMutex
	commands map[string]models.DeviceCommand
}

func NewCommandsRepository() storage.CommandsRepo {
	return &InMemoryCommandsStore{
		commands: map[string]models.DeviceCommand{},
	}
}

func (s *InMemoryCommandsStore) Insert(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands[command.ID] = *command
	stored := s.commands[command.ID]
	return &stored, nil
}

func (s *InMemoryCommandsStore) Update(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands[command.ID] = *command
	stored := s.commands[command.ID]
	return &stored, nil
}

func (s *InMemoryCommandsStore) SelectExists(ctx context.Context, id string) (bool, *models.DeviceCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	command, ok := s.commands[id]
	if !ok {
		return false, nil, nil
	}

	return true, &command, nil
}

func (s *InMemoryCommandsStore) SelectOldestUnexecuted(ctx context.Context, deviceID string) (bool, *models.DeviceCommand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := []models.DeviceCommand{}
	for _, command := range s.commands {
		if command.DeviceID == deviceID && !command.Executed {
			pending = append(pending, command)
		}
	}

	if len(pending) == 0 {
		return false, nil, nil
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreationTimestamp.Before(pending[j].CreationTimestamp)
	})

	oldest := pending[0]
	return true, &oldest, nil
}

func (s *InMemoryCommandsStore) MarkAllExecuted(ctx context.Context, deviceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	affected := 0
	for id, command := range s.commands {
		if command.DeviceID == deviceID && !command.Executed {
			command.Executed = true
			command.ExecutedAt = &now
			s.commands[id] = command
			affected++
		}
	}

	return affected, nil
}
