package tokens

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// SQLRepository implements Repository over dbx.DBTX.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Replace(ctx context.Context, t *models.Token) error {
	del := `
		DELETE FROM tokens
		WHERE owner_id = $1
	`
	if _, err := r.db.ExecContext(ctx, del, t.OwnerID); err != nil {
		return dbx.Classify("drop previous token", err)
	}

	ins := `
		INSERT INTO tokens (owner_id, ciphertext, salt, nonce, tag, mask)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, ins, t.OwnerID, t.Ciphertext, t.Salt, t.Nonce, t.Tag, t.Mask); err != nil {
		return dbx.Classify("store token", err)
	}
	return nil
}

func (r *SQLRepository) GetSealed(ctx context.Context, ownerID string) (*models.Token, string, error) {
	query := `
		SELECT t.owner_id, t.ciphertext, t.salt, t.nonce, t.tag, t.mask, u.password_hash
		FROM tokens t
		JOIN users u ON u.id = t.owner_id
		WHERE t.owner_id = $1
	`
	t := &models.Token{}
	var hash string
	err := r.db.QueryRowContext(ctx, query, ownerID).
		Scan(&t.OwnerID, &t.Ciphertext, &t.Salt, &t.Nonce, &t.Tag, &t.Mask, &hash)
	if err != nil {
		return nil, "", dbx.Classify("get token", err)
	}
	return t, hash, nil
}

func (r *SQLRepository) OwnerByMask(ctx context.Context, mask string) (string, error) {
	query := `
		SELECT owner_id FROM tokens
		WHERE mask = $1
	`
	var ownerID string
	if err := r.db.QueryRowContext(ctx, query, mask).Scan(&ownerID); err != nil {
		return "", dbx.Classify("identify token", err)
	}
	return ownerID, nil
}
