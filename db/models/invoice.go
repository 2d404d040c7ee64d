package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Invoice : Invoice Model
type Invoice struct {
	ID             int64        `json:"id" bun:",pk,autoincrement"`
	RHash          string       `json:"r_hash" bun:",notnull,unique"`
	PaymentRequest string       `json:"payment_request" bun:",nullzero"`
	Amount         int64        `json:"amount" validate:"gte=0"`
	Memo           string       `json:"memo" bun:",nullzero"`
	Tier           string       `json:"tier" bun:",notnull"`
	State          string       `json:"state" bun:",default:'open'"`
	PaymentMethod  string       `json:"payment_method" bun:",nullzero"`
	SoulJSON       string       `json:"-" bun:",nullzero"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	ExpiresAt      bun.NullTime `json:"expires_at" bun:",nullzero"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
	SettledAt      bun.NullTime `json:"settled_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
