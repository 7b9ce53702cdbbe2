package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

var registry = map[string]func() Operation{
	KindInit:                    func() Operation { return &Init{} },
	KindGetCollections:          func() Operation { return &GetCollections{} },
	KindGetCollectionItemCounts: func() Operation { return &GetCollectionItemCounts{} },
	KindAddCollection:           func() Operation { return &AddCollection{} },
	KindUpdateCollection:        func() Operation { return &UpdateCollection{} },
	KindDeleteCollection:        func() Operation { return &DeleteCollection{} },
	KindGetViews:                func() Operation { return &GetViews{} },
	KindAddView:                 func() Operation { return &AddView{} },
	KindUpdateView:              func() Operation { return &UpdateView{} },
	KindDeleteView:              func() Operation { return &DeleteView{} },
	KindGetFields:               func() Operation { return &GetFields{} },
	KindAddField:                func() Operation { return &AddField{} },
	KindUpdateField:             func() Operation { return &UpdateField{} },
	KindReorderFields:           func() Operation { return &ReorderFields{} },
	KindRepairFieldOrder:        func() Operation { return &RepairFieldOrder{} },
	KindDeleteField:             func() Operation { return &DeleteField{} },
	KindGetItems:                func() Operation { return &GetItems{} },
	KindAddItem:                 func() Operation { return &AddItem{} },
	KindUpdateItem:              func() Operation { return &UpdateItem{} },
	KindDeleteItem:              func() Operation { return &DeleteItem{} },
	KindBulkDeleteItems:         func() Operation { return &BulkDeleteItems{} },
	KindBulkPatchItems:          func() Operation { return &BulkPatchItems{} },
	KindImportCollection:        func() Operation { return &ImportCollection{} },
}

// Kinds lists every operation name in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// envelope is the wire form of an operation. Payload is kept apart from the
// kind because several operations carry a "type" field of their own.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DecodeOperation reads {"type": "<kind>", "payload": {...}} into the
// matching operation. Numbers inside documents are kept as json.Number.
func DecodeOperation(raw []byte) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, Wrap(ErrValidation, "malformed operation", err)
	}
	mk, ok := registry[env.Type]
	if !ok {
		return nil, ValidationError("type", fmt.Sprintf("unknown operation %q", env.Type))
	}
	op := mk()
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return op, nil
	}
	dec := json.NewDecoder(bytes.NewReader(env.Payload))
	dec.UseNumber()
	if err := dec.Decode(op); err != nil {
		return nil, Wrap(ErrValidation, "malformed "+env.Type+" payload", err)
	}
	return op, nil
}

// EncodeOperation writes op in the form DecodeOperation reads.
func EncodeOperation(op Operation) ([]byte, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: op.Kind(), Payload: payload})
}
