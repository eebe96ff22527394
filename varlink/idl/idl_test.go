package idl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ftlDescription = `# Interface to jump a spacecraft to another point in space.
interface org.example.ftl

# The current state of the FTL drive and the amount of fuel
# available to jump.
type DriveCondition (
  state: (idle, spooling, busy),
  tylium_level: int
)

type Coordinate (
  longitude: float,
  latitude: float,
  distance: int
)

# Monitor the drive.
method Monitor() -> (condition: DriveCondition)

method Jump(current: Coordinate, target: Coordinate) -> ()

# There is not enough tylium to jump with the given parameters
error NotEnoughEnergy ()

error ParameterOutOfRange (field: string)`

func TestNew(t *testing.T) {
	midl, err := New(ftlDescription)
	require.NoError(t, err)

	assert.Equal(t, "org.example.ftl", midl.Name)
	assert.Equal(t, ftlDescription, midl.Description)
	assert.Equal(t, "Interface to jump a spacecraft to another point in space.", midl.Doc)
	assert.Len(t, midl.Members, 6)

	require.Contains(t, midl.Aliases, "DriveCondition")
	condition := midl.Aliases["DriveCondition"]
	require.Equal(t, TypeStruct, condition.Type.Kind)
	require.Len(t, condition.Type.Fields, 2)
	assert.Equal(t, "state", condition.Type.Fields[0].Name)
	assert.Equal(t, TypeEnum, condition.Type.Fields[0].Type.Kind)
	assert.Equal(t, TypeInt, condition.Type.Fields[1].Type.Kind)

	require.Contains(t, midl.Methods, "Monitor")
	monitor := midl.Methods["Monitor"]
	assert.Empty(t, monitor.In.Fields)
	require.Len(t, monitor.Out.Fields, 1)
	assert.Equal(t, TypeAlias, monitor.Out.Fields[0].Type.Kind)
	assert.Equal(t, "DriveCondition", monitor.Out.Fields[0].Type.Alias)

	require.Contains(t, midl.Methods, "Jump")
	assert.Len(t, midl.Methods["Jump"].In.Fields, 2)

	require.Contains(t, midl.Errors, "NotEnoughEnergy")
	require.Contains(t, midl.Errors, "ParameterOutOfRange")
	outOfRange := midl.Errors["ParameterOutOfRange"]
	require.Len(t, outOfRange.Type.Fields, 1)
	assert.Equal(t, TypeString, outOfRange.Type.Fields[0].Type.Kind)
}

func TestNewInvalid(t *testing.T) {
	for name, description := range map[string]string{
		"empty":             ``,
		"no keyword":        `method Foo() -> ()`,
		"bad name":          `interface example`,
		"missing arrow":     "interface org.example.ftl\nmethod Jump() ()",
		"unknown keyword":   "interface org.example.ftl\nfrobnicate Foo",
		"method without in": "interface org.example.ftl\nmethod Jump -> ()",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(description)
			assert.Error(t, err)
		})
	}
}

func TestArrayTypes(t *testing.T) {
	midl, err := New("interface org.example.arrays\nmethod List() -> (names: string[], sizes: int[])")
	require.NoError(t, err)

	out := midl.Methods["List"].Out
	require.Len(t, out.Fields, 2)
	assert.Equal(t, TypeArray, out.Fields[0].Type.Kind)
	assert.Equal(t, TypeString, out.Fields[0].Type.ElementType.Kind)
}
