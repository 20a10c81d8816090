package repositories

import (
	"context"
	"io"

	"github.com/jonathanlyon/critical-dream-theory-sub000/domain/entities"
)

// DreamUpdate is the set of caller-mutable fields. Nil fields are left
// untouched; everything else on a dream is immutable after creation.
type DreamUpdate struct {
	Title      *string
	IsArchived *bool
	IsPrivate  *bool
}

// DreamRepository defines data access for persisted dreams. GetByID returns
// (nil, nil) when no record exists.
type DreamRepository interface {
	Create(ctx context.Context, dream *entities.Dream) error
	GetByID(ctx context.Context, id string) (*entities.Dream, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Dream, error)
	Update(ctx context.Context, id string, update DreamUpdate) error
	Delete(ctx context.Context, id string) error
}

// AudioStore is the transient upload area for recordings. Keys are opaque.
// Delete must fail on a key that was already deleted so the pipeline's
// exactly-once release is observable.
type AudioStore interface {
	Save(r io.Reader, ext string) (key string, err error)
	Read(key string) ([]byte, error)
	Delete(key string) error
}
