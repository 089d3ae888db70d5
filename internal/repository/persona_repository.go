package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type PersonaRepository struct {
	db *sql.DB
}

func NewPersonaRepository(db *sql.DB) *PersonaRepository {
	return &PersonaRepository{db: db}
}

const personaColumns = `id, slug, name, bio, appearance, tags, base_prices, created_at`

func scanPersona(row rowScanner) (*models.Persona, error) {
	var p models.Persona
	var appearance, tags, prices string
	var created int64
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Bio, &appearance, &tags, &prices, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(appearance), &p.Appearance); err != nil {
		return nil, fmt.Errorf("decode appearance: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(prices), &p.BasePrices); err != nil {
		return nil, fmt.Errorf("decode base prices: %w", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreatedAt = fromUnix(created)
	return &p, nil
}

func (r *PersonaRepository) Create(ctx context.Context, p *models.Persona) error {
	const query = `
INSERT INTO personas (slug, name, bio, appearance, tags, base_prices, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if p.Tags == nil {
		p.Tags = []string{}
	}
	appearance, err := json.Marshal(p.Appearance)
	if err != nil {
		return fmt.Errorf("marshal appearance: %w", err)
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	prices, err := json.Marshal(p.BasePrices)
	if err != nil {
		return fmt.Errorf("marshal base prices: %w", err)
	}
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, p.Slug, p.Name, p.Bio, string(appearance), string(tags), string(prices), now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert persona: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = fromUnix(now)
	return nil
}

func (r *PersonaRepository) GetBySlug(ctx context.Context, slug string) (*models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas WHERE slug = ?`
	p, err := scanPersona(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return p, nil
}

func (r *PersonaRepository) GetByID(ctx context.Context, id int64) (*models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas WHERE id = ?`
	p, err := scanPersona(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return p, nil
}

func (r *PersonaRepository) List(ctx context.Context) ([]models.Persona, error) {
	query := `SELECT ` + personaColumns + ` FROM personas ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	personas := make([]models.Persona, 0)
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		personas = append(personas, *p)
	}
	return personas, rows.Err()
}
