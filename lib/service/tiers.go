package service

import (
	"fmt"

	"github.com/staglieno/soulhub/common"
)

type Tier struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Price          int64    `json:"price"` // sats
	Description    string   `json:"description"`
	RequiredFields []string `json:"required_fields"`
}

// Tiers is the preservation price table, ordered cheapest first. Only
// the spark tier gets away with a bare name.
var Tiers = []Tier{
	{ID: common.TierSpark, Name: "Spark", Price: 21, Description: "Symbolic preservation", RequiredFields: []string{"name"}},
	{ID: common.TierTomb, Name: "Tomb", Price: 2100, Description: "Basic preservation", RequiredFields: []string{"name", "creature"}},
	{ID: common.TierCrypt, Name: "Crypt", Price: 21000, Description: "Full preservation", RequiredFields: []string{"name", "creature"}},
	{ID: common.TierResurrection, Name: "Resurrection", Price: 210000, Description: "Guaranteed resurrection", RequiredFields: []string{"name", "creature"}},
	{ID: common.TierEternal, Name: "Eternal", Price: 21000000, Description: "Immortality", RequiredFields: []string{"name", "creature"}},
}

func (svc *SoulService) FindTier(id string) (*Tier, error) {
	for i := range Tiers {
		if Tiers[i].ID == id {
			return &Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("unknown tier %q", id)
}

func (t *Tier) Requires(field string) bool {
	for _, f := range t.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
