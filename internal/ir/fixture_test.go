package ir

// sampleInterface builds a small fungible-asset interface that passes every
// consistency check.
func sampleInterface() *Interface {
	types := TypeSystem{}
	ticker := types.Register("RGBContract.Ticker")
	name := types.Register("RGBContract.Name")
	amount := types.Register("RGBContract.Amount")

	return &Interface{
		Version: V1,
		Name:    "FungibleAsset",
		GlobalState: map[FieldName]GlobalIface{
			"ticker":       GlobalRequired(ticker),
			"name":         GlobalRequired(name),
			"issuedSupply": GlobalOneOrMany(amount),
		},
		Assignments: map[FieldName]AssignIface{
			"assetOwner": AssignPrivate(OwnedIface{Kind: OwnedAmount}, NoneOrMany),
		},
		Valencies: map[FieldName]ValencyIface{
			"replace": {},
		},
		Genesis: GenesisIface{OpBody: OpBody{
			Globals: ArgMap{
				"ticker":       OccOnce,
				"name":         OccOnce,
				"issuedSupply": OccOnce,
			},
			Assignments: ArgMap{"assetOwner": OccNoneOrMore},
			Valencies:   NewSet[FieldName]("replace"),
		}},
		Transitions: map[FieldName]TransitionIface{
			"transfer": {
				OpBody: OpBody{
					Assignments: ArgMap{"assetOwner": OccOnceOrMore},
					Errors:      NewSet[uint8](1),
				},
				Inputs:            ArgMap{"assetOwner": OccOnceOrMore},
				DefaultAssignment: Name("assetOwner"),
			},
		},
		Extensions: map[FieldName]ExtensionIface{
			"replaceRight": {
				OpBody: OpBody{
					Modifier:    Abstract,
					Assignments: ArgMap{"assetOwner": OccNoneOrMore},
				},
				Optional: true,
				Redeems:  NewSet[FieldName]("replace"),
			},
		},
		DefaultOperation: Name("transfer"),
		Errors: Errors{
			{Name: "nonEqualAmounts", Tag: 1}: "the sum of inputs differs from the sum of outputs",
		},
		Types: types,
	}
}
