package profile

import (
	"time"

	"github.com/Garsondee/Void-Harvest/internal/sim"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Models lists every table the store migrates.
var Models = []interface{}{
	&Profile{},
	&RunRecord{},
}

// Profile is a player's persistent meta-progression.
type Profile struct {
	UserID    string    `json:"userId" gorm:"primaryKey;size:64"`
	Scrap     int       `json:"scrap"`
	HighScore int       `json:"highScore"`
	Drill     int       `json:"drill"`
	Armor     int       `json:"armor"`
	Speed     int       `json:"speed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Upgrades converts the stored levels into the engine's upgrade set.
func (p *Profile) Upgrades() sim.Upgrades {
	return sim.Upgrades{Drill: p.Drill, Armor: p.Armor, Speed: p.Speed}
}

// Level returns the current level of upgrade id, or 0 for an unknown id.
func (p *Profile) Level(id string) int {
	if l := p.level(id); l != nil {
		return *l
	}
	return 0
}

func (p *Profile) level(id string) *int {
	switch id {
	case UpgradeDrill:
		return &p.Drill
	case UpgradeArmor:
		return &p.Armor
	case UpgradeSpeed:
		return &p.Speed
	}
	return nil
}

// RunRecord is one saved match.
type RunRecord struct {
	ID         uuid.UUID      `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     string         `json:"userId" gorm:"size:64;index"`
	Outcome    string         `json:"outcome" gorm:"size:16"`
	Mode       string         `json:"mode" gorm:"size:16"`
	Difficulty string         `json:"difficulty" gorm:"size:16"`
	Score      int            `json:"score"`
	Scrap      int            `json:"scrap"`
	Waves      int            `json:"waves"`
	Kills      int            `json:"kills"`
	Seconds    float64        `json:"seconds"`
	Stats      datatypes.JSON `json:"stats"`
	CreatedAt  time.Time      `json:"createdAt" gorm:"index"`
}
