package domain

// ItemDetails is the category-specific description of the item a quiz is about.
// Concrete types are CharacterDetails, PetDetails and WeaponDetails.
type ItemDetails interface {
	Category() Category
	Base() DetailsBase
}

// Release records when an item entered the game.
type Release struct {
	Update string `json:"update,omitempty" yaml:"update"`
	Date   string `json:"date,omitempty" yaml:"date"`
}

// DetailsBase holds the fields shared by every category.
type DetailsBase struct {
	Name            string   `json:"name" yaml:"name"`
	Title           string   `json:"title,omitempty" yaml:"title"`
	Description     string   `json:"description,omitempty" yaml:"description"`
	Release         Release  `json:"release" yaml:"release"`
	Strengths       []string `json:"strengths,omitempty" yaml:"strengths"`
	Weaknesses      []string `json:"weaknesses,omitempty" yaml:"weaknesses"`
	BestFor         []string `json:"best_for,omitempty" yaml:"best_for"`
	Tips            []string `json:"tips,omitempty" yaml:"tips"`
	BestCombination []string `json:"best_combinations,omitempty" yaml:"best_combinations"`
}

// Ability describes an active or passive character/pet skill.
type Ability struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type,omitempty" yaml:"type"`
	Cooldown string   `json:"cooldown,omitempty" yaml:"cooldown"`
	Duration string   `json:"duration,omitempty" yaml:"duration"`
	Effects  []string `json:"effects,omitempty" yaml:"effects"`
}

// CharacterDetails describes a playable character.
type CharacterDetails struct {
	DetailsBase `yaml:",inline"`
	Role        string   `json:"role,omitempty" yaml:"role"`
	Ability     *Ability `json:"ability,omitempty" yaml:"ability"`
}

func (CharacterDetails) Category() Category { return CategoryCharacters }
func (d CharacterDetails) Base() DetailsBase { return d.DetailsBase }

// PetDetails describes a companion pet.
type PetDetails struct {
	DetailsBase `yaml:",inline"`
	Skill       *Ability `json:"skill,omitempty" yaml:"skill"`
}

func (PetDetails) Category() Category { return CategoryPets }
func (d PetDetails) Base() DetailsBase { return d.DetailsBase }

// WeaponDetails describes a weapon and its stats.
type WeaponDetails struct {
	DetailsBase     `yaml:",inline"`
	WeaponType      string   `json:"weapon_type,omitempty" yaml:"weapon_type"`
	Damage          *int     `json:"damage,omitempty" yaml:"damage"`
	FireRate        string   `json:"fire_rate,omitempty" yaml:"fire_rate"`
	Range           string   `json:"range,omitempty" yaml:"range"`
	MagazineSize    *int     `json:"magazine_size,omitempty" yaml:"magazine_size"`
	ReloadTime      *float64 `json:"reload_time,omitempty" yaml:"reload_time"`
	SpecialFeatures []string `json:"special_features,omitempty" yaml:"special_features"`
}

func (WeaponDetails) Category() Category { return CategoryWeapons }
func (d WeaponDetails) Base() DetailsBase { return d.DetailsBase }

// NewDetails returns an empty details value for category, ready to be decoded into.
func NewDetails(category Category) (ItemDetails, any, bool) {
	switch category {
	case CategoryCharacters:
		d := &CharacterDetails{}
		return d, d, true
	case CategoryPets:
		d := &PetDetails{}
		return d, d, true
	case CategoryWeapons:
		d := &WeaponDetails{}
		return d, d, true
	}
	return nil, nil, false
}
