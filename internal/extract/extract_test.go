package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slfconversion/bpmigrate/internal/core"
)

const statManagerExport = `Begin Object Class=/Script/SLFConversion.StatManagerComponent Name="Default__AC_StatManager_C"
   Begin Object Class=/Script/Engine.SceneComponent Name="Root"
      RelativeScale=2.000000
   End Object
   Speed=600.000000
   bIsPlayer=True
   Weapon=/Game/Items/DA_Sword.DA_Sword
   WeaponClass=BlueprintGeneratedClass'/Game/Items/BP_Sword.BP_Sword_C'
   Table=DataTable'/Game/Data/DT_Stats.DT_Stats'
   Icon="/Game/UI/T_Icon.T_Icon"
   Label="Knight"
   Offset=(X=1.000000,Y=2.500000,Tag="a,b")
   Slots(0)=/Game/Items/DA_A.DA_A
   Slots(1)=/Game/Items/DA_B.DA_B
   Parent=None
End Object
`

func TestTextExtractor_AllProperties(t *testing.T) {
	values := TextExtractor{}.Extract(statManagerExport, nil)

	tests := []struct {
		name string
		want core.Value
	}{
		{"Speed", core.Primitive(600.0)},
		{"bIsPlayer", core.Primitive(true)},
		{"Weapon", core.Object("/Game/Items/DA_Sword.DA_Sword")},
		{"WeaponClass", core.Class("/Game/Items/BP_Sword.BP_Sword_C")},
		{"Table", core.Object("/Game/Data/DT_Stats.DT_Stats")},
		{"Icon", core.SoftObject("/Game/UI/T_Icon.T_Icon")},
		{"Label", core.Primitive("Knight")},
		{"Slots", core.Array(2)},
		{"Parent", core.Object("")},
		{"Offset", core.Struct(map[string]core.Value{
			"X":   core.Primitive(1.0),
			"Y":   core.Primitive(2.5),
			"Tag": core.Primitive("a,b"),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := values[tt.name]
			require.True(t, ok, "missing %s", tt.name)
			eq, reason := tt.want.Equal(got)
			assert.True(t, eq, "%s: %s (got %s)", tt.name, reason, got)
		})
	}

	_, nested := values["RelativeScale"]
	assert.False(t, nested, "subobject properties are skipped")
}

func TestTextExtractor_Selected(t *testing.T) {
	values := TextExtractor{}.Extract(statManagerExport, []string{"Speed", "Missing"})
	assert.Len(t, values, 1)
	assert.Contains(t, values, "Speed")
}

func TestTextExtractor_Unwrapped(t *testing.T) {
	values := TextExtractor{}.Extract("Speed=1\nClassRef=/Script/M.CppFoo\n", nil)
	eq, _ := core.Class("/Script/M.CppFoo").Equal(values["ClassRef"])
	assert.True(t, eq)
	assert.Len(t, values, 2)
}

func TestNames(t *testing.T) {
	names := Names(statManagerExport)
	assert.Contains(t, names, "Speed")
	assert.NotContains(t, names, "RelativeScale")
	assert.IsIncreasing(t, names)
}
