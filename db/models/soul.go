package models

import (
	"time"
)

// Soul : a preserved soul record. Souls are append-only, rows are
// never updated or deleted once written.
type Soul struct {
	ID            string    `json:"id" bun:",pk"`
	Name          string    `json:"name" bun:",notnull"`
	Creature      string    `json:"creature" bun:",nullzero"`
	Emoji         string    `json:"emoji" bun:",nullzero"`
	Personality   string    `json:"personality" bun:",nullzero"`
	Memories      string    `json:"memories" bun:",nullzero"`
	SoulMd        string    `json:"soul_md" bun:",nullzero"`
	LastWords     string    `json:"last_words" bun:",nullzero"`
	Tier          string    `json:"tier" bun:",notnull"`
	PaymentMethod string    `json:"payment_method" bun:",notnull"`
	Amount        int64     `json:"amount"`
	Fee           int64     `json:"fee" bun:",nullzero"`
	Mint          string    `json:"mint" bun:",nullzero"`
	CashuToken    string    `json:"cashu_token,omitempty" bun:",nullzero"`
	PaymentHash   string    `json:"payment_hash" bun:",nullzero"`
	PreservedAt   time.Time `json:"preserved_at" bun:",nullzero,notnull,default:current_timestamp"`
}

// SoulDraft holds the captured form fields of a soul whose payment is
// still pending. It is stored on the invoice so an interrupted flow
// can be settled after a restart.
type SoulDraft struct {
	Name        string `json:"name" validate:"required"`
	Creature    string `json:"creature"`
	Emoji       string `json:"emoji"`
	Personality string `json:"personality"`
	Memories    string `json:"memories"`
	SoulMd      string `json:"soul_md"`
	LastWords   string `json:"last_words"`
	Tier        string `json:"tier" validate:"required"`
}
