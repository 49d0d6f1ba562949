package testutil

import "github.com/roach88/contractum/internal/ir"

// Error messages shared by the Go builders and the CUE sources, so both
// forms of a fixture derive the same id.
const (
	msgSupplyMismatch  = "supply mismatch"
	msgNonEqualAmounts = "the sum of inputs differs from the sum of outputs"
	msgInvalidProof    = "invalid burn proof"
)

// FungibleAsset builds a fungible-asset interface that passes every
// consistency check. It is the Go form of FungibleAssetCUE.
func FungibleAsset() *ir.Interface {
	types := ir.TypeSystem{}
	spec := types.Register("RGBContract.AssetSpec")
	terms := types.Register("RGBContract.ContractTerms")
	amount := types.Register("RGBContract.Amount")

	return &ir.Interface{
		Version: ir.V1,
		Name:    "FungibleAsset",
		GlobalState: map[ir.FieldName]ir.GlobalIface{
			"spec":         ir.GlobalRequired(spec),
			"terms":        ir.GlobalRequired(terms),
			"issuedSupply": ir.GlobalOneOrMany(amount),
		},
		Assignments: map[ir.FieldName]ir.AssignIface{
			"assetOwner": ir.AssignPrivate(ir.OwnedIface{Kind: ir.OwnedAmount}, ir.NoneOrMany),
		},
		Valencies: map[ir.FieldName]ir.ValencyIface{
			"replace": {},
		},
		Genesis: ir.GenesisIface{OpBody: ir.OpBody{
			Globals: ir.ArgMap{
				"spec":         ir.OccOnce,
				"terms":        ir.OccOnce,
				"issuedSupply": ir.OccOnce,
			},
			Assignments: ir.ArgMap{"assetOwner": ir.OccNoneOrMore},
			Valencies:   ir.NewSet[ir.FieldName]("replace"),
			Errors:      ir.NewSet[uint8](1),
		}},
		Transitions: map[ir.FieldName]ir.TransitionIface{
			"transfer": {
				OpBody: ir.OpBody{
					Modifier:    ir.Abstract,
					Assignments: ir.ArgMap{"assetOwner": ir.OccOnceOrMore},
					Errors:      ir.NewSet[uint8](2),
				},
				Inputs:            ir.ArgMap{"assetOwner": ir.OccOnceOrMore},
				DefaultAssignment: ir.Name("assetOwner"),
			},
		},
		Extensions: map[ir.FieldName]ir.ExtensionIface{
			"replaceRight": {
				OpBody: ir.OpBody{
					Modifier:    ir.Abstract,
					Assignments: ir.ArgMap{"assetOwner": ir.OccNoneOrMore},
				},
				Optional: true,
				Redeems:  ir.NewSet[ir.FieldName]("replace"),
			},
		},
		DefaultOperation: ir.Name("transfer"),
		Errors: ir.Errors{
			{Name: "supplyMismatch", Tag: 1}:  msgSupplyMismatch,
			{Name: "nonEqualAmounts", Tag: 2}: msgNonEqualAmounts,
		},
		Types: types,
	}
}

// BurnableAsset builds an interface extending parent with a burn
// transition. With parent set to FungibleAsset().ID() it is the Go form of
// BurnableAssetCUE.
func BurnableAsset(parent ir.IfaceID) *ir.Interface {
	types := ir.TypeSystem{}
	amount := types.Register("RGBContract.Amount")
	proof := types.Register("RGBContract.BurnProof")

	return &ir.Interface{
		Version:  ir.V1,
		Name:     "BurnableAsset",
		Inherits: ir.NewIDSet(parent),
		GlobalState: map[ir.FieldName]ir.GlobalIface{
			"burnedSupply": ir.GlobalNoneOrMany(amount),
		},
		Assignments: map[ir.FieldName]ir.AssignIface{
			"burnRight": ir.AssignPublic(ir.OwnedIface{Kind: ir.OwnedRights}, ir.Optional),
		},
		Genesis: ir.GenesisIface{OpBody: ir.OpBody{
			Modifier:    ir.Override,
			Assignments: ir.ArgMap{"burnRight": ir.OccNoneOrOnce},
		}},
		Transitions: map[ir.FieldName]ir.TransitionIface{
			"burn": {
				OpBody: ir.OpBody{
					Metadata:    &proof,
					Globals:     ir.ArgMap{"burnedSupply": ir.OccOnce},
					Assignments: ir.ArgMap{"burnRight": ir.OccNoneOrOnce},
					Errors:      ir.NewSet[uint8](1, 3),
				},
				Inputs:            ir.ArgMap{"burnRight": ir.OccOnce},
				DefaultAssignment: ir.Name("burnRight"),
			},
		},
		DefaultOperation: ir.Name("burn"),
		Errors: ir.Errors{
			{Name: "supplyMismatch", Tag: 1}: msgSupplyMismatch,
			{Name: "invalidProof", Tag: 3}:   msgInvalidProof,
		},
		Types: types,
	}
}

// FungibleAssetCUE is the CUE source of FungibleAsset.
const FungibleAssetCUE = `
interface: FungibleAsset: {
	types: ["RGBContract.AssetSpec", "RGBContract.ContractTerms", "RGBContract.Amount"]

	global: {
		spec: {type: "RGBContract.AssetSpec", req: "required"}
		terms: {type: "RGBContract.ContractTerms", req: "required"}
		issuedSupply: {type: "RGBContract.Amount", req: "one_or_many"}
	}
	assign: assetOwner: {state: "amount", req: "none_or_many"}
	valency: replace: {}
	error: {
		supplyMismatch: {tag: 1, message: "` + msgSupplyMismatch + `"}
		nonEqualAmounts: {tag: 2, message: "` + msgNonEqualAmounts + `"}
	}

	genesis: {
		globals: {spec: "once", terms: "once", issuedSupply: "once"}
		assigns: assetOwner: "*"
		valencies: ["replace"]
		errors: ["supplyMismatch"]
	}
	transition: transfer: {
		modifier: "abstract"
		inputs: assetOwner: "+"
		assigns: assetOwner: "+"
		errors: ["nonEqualAmounts"]
		default: "assetOwner"
	}
	extension: replaceRight: {
		modifier: "abstract"
		optional: true
		redeems: ["replace"]
		assigns: assetOwner: "*"
	}
	default: "transfer"
}
`

// BurnableAssetCUE is the CUE source of BurnableAsset. It names its parent,
// so it compiles only together with FungibleAssetCUE.
const BurnableAssetCUE = `
interface: BurnableAsset: {
	inherits: ["FungibleAsset"]
	types: ["RGBContract.Amount", "RGBContract.BurnProof"]

	global: burnedSupply: {type: "RGBContract.Amount", req: "none_or_many"}
	assign: burnRight: {state: "rights", public: true}
	error: {
		supplyMismatch: {tag: 1, message: "` + msgSupplyMismatch + `"}
		invalidProof: {tag: 3, message: "` + msgInvalidProof + `"}
	}

	genesis: {
		modifier: "override"
		assigns: burnRight: "?"
	}
	transition: burn: {
		metadata: "RGBContract.BurnProof"
		globals: burnedSupply: "once"
		inputs: burnRight: "once"
		assigns: burnRight: "?"
		errors: ["supplyMismatch", "invalidProof"]
		default: "burnRight"
	}
	default: "burn"
}
`
