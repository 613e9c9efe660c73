package repository

import (
	"colabnote-be/internal/entity"
	"colabnote-be/pkg/database"
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type INoteRepository interface {
	UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository
	Create(ctx context.Context, note *entity.Note) error
	GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	GetByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Note, error)
	GetByOpenAccessCode(ctx context.Context, code string) (*entity.Note, error)
	Update(ctx context.Context, note *entity.Note) error
	DeleteById(ctx context.Context, id uuid.UUID) error
}

type noteRepository struct {
	db database.DatabaseQueryer
}

func (n *noteRepository) UsingTx(ctx context.Context, tx database.DatabaseQueryer) INoteRepository {
	return &noteRepository{
		db: tx,
	}
}

func (n *noteRepository) Create(ctx context.Context, note *entity.Note) error {
	_, err := n.db.Exec(
		ctx,
		`INSERT INTO note (id, title, content, items, users, owner, is_collaboration_open, access_code, variant, last_edited) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		note.Id,
		note.Title,
		note.Content,
		note.Items,
		note.Users,
		note.Owner,
		note.IsCollaborationOpen,
		note.AccessCode,
		note.Variant,
		note.LastEdited,
	)
	if err != nil {
		return err
	}

	return nil
}

func (n *noteRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	rows := n.db.QueryRow(
		ctx,
		`SELECT id, title, content, items, users, owner, is_collaboration_open, access_code, variant, last_edited FROM note WHERE id = $1`,
		id,
	)

	var note entity.Note
	err := rows.Scan(
		&note.Id,
		&note.Title,
		&note.Content,
		&note.Items,
		&note.Users,
		&note.Owner,
		&note.IsCollaborationOpen,
		&note.AccessCode,
		&note.Variant,
		&note.LastEdited,
	)

	if err != nil {
		return nil, err
	}

	return &note, err
}

func (n *noteRepository) GetByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Note, error) {
	rows, err := n.db.Query(
		ctx,
		`SELECT id, title, content, items, users, owner, is_collaboration_open, access_code, variant, last_edited FROM note WHERE id = ANY($1) ORDER BY last_edited DESC`,
		ids,
	)
	if err != nil {
		return nil, err
	}

	res := make([]*entity.Note, 0)

	for rows.Next() {
		var note entity.Note
		err = rows.Scan(
			&note.Id,
			&note.Title,
			&note.Content,
			&note.Items,
			&note.Users,
			&note.Owner,
			&note.IsCollaborationOpen,
			&note.AccessCode,
			&note.Variant,
			&note.LastEdited,
		)
		if err != nil {
			return nil, err
		}

		res = append(res, &note)

	}

	return res, err
}

func (n *noteRepository) GetByOpenAccessCode(ctx context.Context, code string) (*entity.Note, error) {
	rows := n.db.QueryRow(
		ctx,
		`SELECT id, title, content, items, users, owner, is_collaboration_open, access_code, variant, last_edited FROM note WHERE access_code = $1 AND is_collaboration_open = true ORDER BY last_edited DESC LIMIT 1`,
		code,
	)

	var note entity.Note
	err := rows.Scan(
		&note.Id,
		&note.Title,
		&note.Content,
		&note.Items,
		&note.Users,
		&note.Owner,
		&note.IsCollaborationOpen,
		&note.AccessCode,
		&note.Variant,
		&note.LastEdited,
	)

	if err != nil {
		return nil, err
	}

	return &note, err
}

func (n *noteRepository) Update(ctx context.Context, note *entity.Note) error {
	_, err := n.db.Exec(
		ctx,
		`UPDATE note SET title = $2, content = $3, items = $4, users = $5, owner = $6, is_collaboration_open = $7, access_code = $8, variant = $9, last_edited = $10 WHERE id = $1`,
		note.Id,
		note.Title,
		note.Content,
		note.Items,
		note.Users,
		note.Owner,
		note.IsCollaborationOpen,
		note.AccessCode,
		note.Variant,
		note.LastEdited,
	)
	if err != nil {
		return err
	}

	return nil
}

func (n *noteRepository) DeleteById(ctx context.Context, id uuid.UUID) error {
	_, err := n.db.Exec(
		ctx,
		`DELETE FROM note WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}

	return nil
}

func NewNoteRepository(db *pgxpool.Pool) INoteRepository {
	return &noteRepository{
		db: db,
	}
}
