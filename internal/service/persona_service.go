package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/digkill/futurepro/internal/models"
	"github.com/digkill/futurepro/internal/moderation"
	"github.com/digkill/futurepro/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

const maxMessageLength = 2000

type PersonaService struct {
	personas *repository.PersonaRepository
	chat     *repository.ChatRepository
}

func NewPersonaService(personas *repository.PersonaRepository, chat *repository.ChatRepository) *PersonaService {
	return &PersonaService{personas: personas, chat: chat}
}

func (s *PersonaService) List(ctx context.Context) ([]models.Persona, error) {
	return s.personas.List(ctx)
}

func (s *PersonaService) Get(ctx context.Context, slug string) (*models.Persona, error) {
	persona, err := s.personas.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if persona == nil {
		return nil, ErrPersonaNotFound
	}
	return persona, nil
}

// Create stores a new persona. Bio and tags go through the content policy filter.
func (s *PersonaService) Create(ctx context.Context, p *models.Persona) error {
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	p.Name = strings.TrimSpace(p.Name)
	if !slugPattern.MatchString(p.Slug) {
		return invalid("invalid_slug")
	}
	if p.Name == "" {
		return invalid("name_required")
	}
	if err := moderation.Screen(p.Bio + " " + strings.Join(p.Tags, " ")); err != nil {
		return err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if err := s.personas.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

// Messages returns the conversation between an account and a persona, oldest first.
func (s *PersonaService) Messages(ctx context.Context, accountID int64, slug string, limit int) ([]models.ChatMessage, error) {
	persona, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.chat.ListConversation(ctx, accountID, persona.ID, limit)
}

// Send stores a user message after screening it.
func (s *PersonaService) Send(ctx context.Context, accountID int64, slug, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("message_required")
	}
	if len(body) > maxMessageLength {
		return nil, invalid("message_too_long")
	}
	if err := moderation.Screen(body); err != nil {
		return nil, err
	}
	persona, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	msg := &models.ChatMessage{
		AccountID: accountID,
		PersonaID: persona.ID,
		Role:      models.RoleUser,
		Body:      body,
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
