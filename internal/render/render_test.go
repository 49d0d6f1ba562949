package render

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/ir"
	"github.com/roach88/contractum/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestInterface_Golden(t *testing.T) {
	fungible := testutil.FungibleAsset()
	burnable := testutil.BurnableAsset(fungible.ID())
	externals := map[ir.IfaceID]string{fungible.ID(): fungible.Name}

	tests := []struct {
		name  string
		iface *ir.Interface
	}{
		{"fungible_asset", fungible},
		{"burnable_asset", burnable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Interface(&buf, tt.iface, externals, nil))
			newGoldie(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestString_UnnamedParent(t *testing.T) {
	parent := testutil.FungibleAsset().ID()
	out := String(testutil.BurnableAsset(parent), nil, nil)

	assert.Contains(t, out, "interface BurnableAsset: "+parent.String()+"\n")
}

func TestString_UnknownType(t *testing.T) {
	id := ir.SemIDFromName("Hidden.Type")
	iface := &ir.Interface{
		Version: ir.V1,
		Name:    "Opaque",
		GlobalState: map[ir.FieldName]ir.GlobalIface{
			"secret": ir.GlobalOptional(id),
			"blob":   ir.GlobalAny(ir.OneOrMany),
		},
	}

	out := String(iface, nil, nil)
	assert.Contains(t, out, "\tglobal secret(?): "+id.String()+" -- type name unknown\n")
	assert.Contains(t, out, "\tglobal blob(+): Any\n")

	lookup := ir.TypeSystem{}
	lookup.Register("Hidden.Type")
	assert.Contains(t, String(iface, nil, lookup), "\tglobal secret(?): Hidden.Type\n")
}

func TestString_UnknownErrorTag(t *testing.T) {
	iface := testutil.FungibleAsset()
	iface.Transitions["transfer"].Errors[9] = struct{}{}

	assert.Contains(t, String(iface, nil, nil), "\t\terrors: nonEqualAmounts, 9\n")
}

func TestString_OwnedStates(t *testing.T) {
	doc := ir.SemIDFromName("RGBContract.Attachment")
	iface := &ir.Interface{
		Version: ir.V1,
		Name:    "Kinds",
		Assignments: map[ir.FieldName]ir.AssignIface{
			"a": ir.AssignPrivate(ir.OwnedIface{Kind: ir.OwnedAny}, ir.Required),
			"b": ir.AssignPrivate(ir.OwnedIface{Kind: ir.OwnedAnyData}, ir.Required),
			"c": ir.AssignPrivate(ir.OwnedIface{Kind: ir.OwnedAnyAttach}, ir.Required),
			"d": ir.AssignPublic(ir.OwnedDataOf(doc), ir.NoneOrMany),
		},
		Types: ir.TypeSystem{doc: "RGBContract.Attachment"},
	}

	out := String(iface, nil, nil)
	assert.Contains(t, out, "\towned a: AnyType\n")
	assert.Contains(t, out, "\towned b: Any\n")
	assert.Contains(t, out, "\towned c: AnyAttachment\n")
	assert.Contains(t, out, "\tpublic d(*): RGBContract.Attachment\n")
}

func TestString_EmptyInterface(t *testing.T) {
	out := String(&ir.Interface{Version: ir.V1, Name: "Empty"}, nil, nil)
	assert.Equal(t, "@version(v1)\ninterface Empty\n\tgenesis: final\n", out)
}

func TestString_DoesNotValidate(t *testing.T) {
	iface := testutil.FungibleAsset()
	iface.DefaultOperation = ir.Name("mint")
	iface.Transitions["transfer"].Inputs["beneficiary"] = ir.OccExactly(2)

	out := String(iface, nil, nil)
	assert.Contains(t, out, "\ttransition transfer: required, abstract\n")
	assert.Contains(t, out, "\t\tinputs: assetOwner(+), beneficiary(2)\n")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestInterface_WriteError(t *testing.T) {
	err := Interface(failingWriter{}, testutil.FungibleAsset(), nil, nil)
	assert.EqualError(t, err, "disk full")
}
