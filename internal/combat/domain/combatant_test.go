package domain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/okuden/duelsim/internal/dice"
)

func validDefinition() Definition {
	return Definition{
		ID:   "kenji",
		Name: "Kenji",
		Side: "crane",
		Rings: Rings{
			Air: 3, Earth: 2, Fire: 4, Water: 2, Void: 3,
		},
		Attack: 2,
		Parry:  1,
		Armor:  1,
		Abilities: []Ability{
			{ID: "focus", Cost: 1, Effect: EffectExtraAttackDice, Magnitude: 2},
			{ID: "second-wind", Cost: 2, Effect: EffectHeal, Magnitude: 1, OneUse: true},
		},
	}
}

func TestDefinitionValidate(t *testing.T) {
	tcs := []struct {
		name    string
		mutate  func(*Definition)
		wantErr error
	}{
		{"valid", func(d *Definition) {}, nil},
		{"empty id", func(d *Definition) { d.ID = "" }, ErrEmptyID},
		{"empty side", func(d *Definition) { d.Side = "" }, ErrEmptySide},
		{"ring too low", func(d *Definition) { d.Rings.Earth = 0 }, ErrInvalidRing},
		{"ring too high", func(d *Definition) { d.Rings.Fire = 10 }, ErrInvalidRing},
		{"negative skill", func(d *Definition) { d.Parry = -1 }, ErrInvalidSkill},
		{"negative armor", func(d *Definition) { d.Armor = -1 }, ErrInvalidArmor},
		{"bad ability", func(d *Definition) { d.Abilities[0].Effect = "fly" }, ErrInvalidAbility},
		{"duplicate ability", func(d *Definition) { d.Abilities[1].ID = "focus" }, ErrDuplicateAbility},
	}

	for _, tc := range tcs {
		def := validDefinition()
		tc.mutate(&def)
		err := def.Validate()
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: Validate() = %v, want nil", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: Validate() = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestNewCombatantStartingState(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	if c.Wound != WoundHealthy || !c.Conscious() {
		t.Fatalf("starting wound = %v", c.Wound)
	}
	// Lowest ring is 2, no extras.
	if c.VoidPoints != 2 {
		t.Fatalf("void points = %d, want 2", c.VoidPoints)
	}
}

func TestNewCombatantExtraVoid(t *testing.T) {
	def := validDefinition()
	def.ExtraVoid = 3
	c, err := NewCombatant(def)
	if err != nil {
		t.Fatal(err)
	}
	if c.VoidPoints != 5 {
		t.Fatalf("void points = %d, want 5", c.VoidPoints)
	}
}

func TestNewCombatantDefaultsName(t *testing.T) {
	def := validDefinition()
	def.Name = ""
	c, err := NewCombatant(def)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "kenji" {
		t.Fatalf("name = %q, want id fallback", c.Name)
	}
}

func TestDerivedPools(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	if got, want := c.AttackPool(), (dice.Pool{Roll: 6, Keep: 4, Explode: true}); got != want {
		t.Fatalf("AttackPool() = %+v, want %+v", got, want)
	}
	if got, want := c.ParryPool(), (dice.Pool{Roll: 4, Keep: 3, Explode: true}); got != want {
		t.Fatalf("ParryPool() = %+v, want %+v", got, want)
	}
	if got, want := c.InitiativePool(), (dice.Pool{Roll: 4, Keep: 3}); got != want {
		t.Fatalf("InitiativePool() = %+v, want %+v", got, want)
	}
}

func TestAbilitiesKeepDefinitionOrder(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, ability := range c.Abilities() {
		ids = append(ids, ability.ID)
	}
	if !reflect.DeepEqual(ids, []string{"focus", "second-wind"}) {
		t.Fatalf("ability order = %v", ids)
	}
}

func TestPayAbilityOneUse(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.PayAbility("second-wind"); err != nil {
		t.Fatal(err)
	}
	if c.VoidPoints != 0 {
		t.Fatalf("void points = %d, want 0", c.VoidPoints)
	}
	if _, err := c.PayAbility("second-wind"); !errors.Is(err, ErrUnknownAbility) {
		t.Fatalf("second use error = %v, want ErrUnknownAbility", err)
	}
	if len(c.Abilities()) != 1 {
		t.Fatalf("abilities = %+v, want spent one hidden", c.Abilities())
	}
}

func TestPayAbilityInsufficientVoidLeavesStateAlone(t *testing.T) {
	def := validDefinition()
	def.Abilities = []Ability{
		{ID: "surge", Cost: 9, Effect: EffectExtraAttackDice, Magnitude: 1, OneUse: true},
	}
	c, err := NewCombatant(def)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.PayAbility("surge"); !errors.Is(err, ErrInsufficientVoid) {
		t.Fatalf("error = %v, want ErrInsufficientVoid", err)
	}
	if c.VoidPoints != 2 {
		t.Fatalf("void points = %d, want unchanged 2", c.VoidPoints)
	}
	if _, err := c.AbilityByID("surge"); err != nil {
		t.Fatalf("surge marked spent after failed payment: %v", err)
	}
}

func TestPayAbilityUnknown(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.PayAbility("nope"); !errors.Is(err, ErrUnknownAbility) {
		t.Fatalf("error = %v, want ErrUnknownAbility", err)
	}
}

func TestApplyWoundMonotonic(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ApplyWound(2); err != nil {
		t.Fatal(err)
	}
	if c.Wound != WoundSerious {
		t.Fatalf("wound = %v, want serious", c.Wound)
	}
	if _, err := c.ApplyWound(-1); !errors.Is(err, ErrWoundRegression) {
		t.Fatalf("negative step error = %v, want ErrWoundRegression", err)
	}
	if c.Wound != WoundSerious {
		t.Fatalf("wound changed on rejected step: %v", c.Wound)
	}
	if _, err := c.ApplyWound(10); err != nil {
		t.Fatal(err)
	}
	if c.Wound != WoundDead || c.Conscious() {
		t.Fatalf("wound = %v, want dead", c.Wound)
	}
}

func TestHealFloorsAtHealthy(t *testing.T) {
	c, err := NewCombatant(validDefinition())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ApplyWound(1); err != nil {
		t.Fatal(err)
	}
	if got := c.Heal(5); got != WoundHealthy {
		t.Fatalf("Heal(5) = %v, want healthy", got)
	}
	if got := c.Heal(0); got != WoundHealthy {
		t.Fatalf("Heal(0) = %v, want unchanged", got)
	}
}
