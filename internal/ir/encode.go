package ir

// Canonical tree for an Interface.
//
// Every field of the data model is present in the tree. Tables become
// objects keyed by name, sets become sorted arrays, absent optionals are
// omitted keys (canonical JSON forbids null). Together with MarshalCanonical
// this is the identity preimage; changing the shape here changes every id.

// EncodeInterface converts an interface into its canonical IR tree.
func EncodeInterface(i *Interface) IRObject {
	obj := IRObject{
		"version":      IRInt(i.Version),
		"name":         IRString(i.Name),
		"inherits":     encodeIDs(i.Inherits),
		"global_state": encodeTable(i.GlobalState, encodeGlobal),
		"assignments":  encodeTable(i.Assignments, encodeAssign),
		"valencies":    encodeTable(i.Valencies, encodeValency),
		"genesis":      EncodeGenesis(i.Genesis),
		"transitions":  encodeTable(i.Transitions, EncodeTransition),
		"extensions":   encodeTable(i.Extensions, EncodeExtension),
		"errors":       encodeErrors(i.Errors),
		"types":        encodeTypes(i.Types),
	}
	if i.DefaultOperation != nil {
		obj["default_operation"] = IRString(*i.DefaultOperation)
	}
	return obj
}

func encodeTable[V any](m map[FieldName]V, enc func(V) IRValue) IRObject {
	obj := make(IRObject, len(m))
	for name, v := range m {
		obj[string(name)] = enc(v)
	}
	return obj
}

func encodeIDs(ids IDSet) IRArray {
	return arrayOf(ids.Sorted(), func(id IfaceID) IRValue { return IRString(id.Hex()) })
}

func encodeGlobal(g GlobalIface) IRValue {
	obj := IRObject{
		"required": IRBool(g.Required),
		"multiple": IRBool(g.Multiple),
	}
	if g.SemID != nil {
		obj["sem_id"] = IRString(g.SemID.String())
	}
	return obj
}

func encodeAssign(a AssignIface) IRValue {
	state := IRObject{"kind": IRString(a.OwnedState.Kind.String())}
	if a.OwnedState.Kind == OwnedData {
		state["sem_id"] = IRString(a.OwnedState.SemID.String())
	}
	return IRObject{
		"owned_state": state,
		"public":      IRBool(a.Public),
		"required":    IRBool(a.Required),
		"multiple":    IRBool(a.Multiple),
	}
}

func encodeValency(v ValencyIface) IRValue {
	return IRObject{"required": IRBool(v.Required)}
}

func encodeOccurrence(o Occurrence) IRValue {
	obj := IRObject{"kind": IRString(o.Kind.String())}
	switch o.Kind {
	case Exactly:
		obj["lo"] = IRInt(o.Lo)
	case Range:
		obj["lo"] = IRInt(o.Lo)
		obj["hi"] = IRInt(o.Hi)
	case NoneOrUpTo, OnceOrUpTo:
		obj["hi"] = IRInt(o.Hi)
	}
	return obj
}

func encodeArgs(m ArgMap) IRObject {
	return encodeTable(m, encodeOccurrence)
}

func encodeNames(s NameSet) IRArray {
	return arrayOf(s.Sorted(), func(name FieldName) IRValue { return IRString(name) })
}

func encodeTags(s TagSet) IRArray {
	return arrayOf(s.Sorted(), func(tag uint8) IRValue { return IRInt(tag) })
}

// EncodeGenesis returns the canonical tree of the genesis operation.
func EncodeGenesis(g GenesisIface) IRValue {
	return encodeOpBody(g.OpBody)
}

func encodeOpBody(b OpBody) IRObject {
	obj := IRObject{
		"modifier":    IRString(b.Modifier.String()),
		"globals":     encodeArgs(b.Globals),
		"assignments": encodeArgs(b.Assignments),
		"valencies":   encodeNames(b.Valencies),
		"errors":      encodeTags(b.Errors),
	}
	if b.Metadata != nil {
		obj["metadata"] = IRString(b.Metadata.String())
	}
	return obj
}

// EncodeTransition returns the canonical tree of a single transition.
func EncodeTransition(t TransitionIface) IRValue {
	obj := encodeOpBody(t.OpBody)
	obj["optional"] = IRBool(t.Optional)
	obj["inputs"] = encodeArgs(t.Inputs)
	if t.DefaultAssignment != nil {
		obj["default_assignment"] = IRString(*t.DefaultAssignment)
	}
	return obj
}

// EncodeExtension returns the canonical tree of a single extension.
func EncodeExtension(e ExtensionIface) IRValue {
	obj := encodeOpBody(e.OpBody)
	obj["optional"] = IRBool(e.Optional)
	obj["redeems"] = encodeNames(e.Redeems)
	if e.DefaultAssignment != nil {
		obj["default_assignment"] = IRString(*e.DefaultAssignment)
	}
	return obj
}

func encodeErrors(e Errors) IRArray {
	return arrayOf(e.Variants(), func(v ErrorVariant) IRValue {
		return IRObject{
			"name":    IRString(v.Name),
			"tag":     IRInt(v.Tag),
			"message": IRString(e[v]),
		}
	})
}

func encodeTypes(ts TypeSystem) IRObject {
	obj := make(IRObject, len(ts))
	for id, name := range ts {
		obj[id.String()] = IRString(name)
	}
	return obj
}
