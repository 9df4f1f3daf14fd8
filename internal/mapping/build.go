// internal/mapping/build.go
package mapping

import "gopkg.in/yaml.v3"

// build constructs typed descriptors from a document that already passed
// validation. It may assume shape; only defaulting happens here.

func build(root *yaml.Node) (DeviceInfo, []Entity) {
	root = deref(root)

	dev := child(root, "device")
	info := DeviceInfo{
		Name:         strVal(child(dev, "name")),
		Manufacturer: strVal(child(dev, "manufacturer")),
		Model:        strVal(child(dev, "model")),
	}

	list := deref(child(root, "entities"))
	entities := make([]Entity, 0, len(list.Content))

	for _, n := range list.Content {
		n = deref(n)

		ent := Entity{
			Platform:    Platform(strVal(child(n, "platform"))),
			Key:         strVal(child(n, "key")),
			Name:        strVal(child(n, "name")),
			Description: strVal(child(n, "description")),
			Unit:        strVal(child(n, "unit")),
			Icon:        strVal(child(n, "icon")),
			DeviceClass: strVal(child(n, "device_class")),
			StateClass:  strVal(child(n, "state_class")),
			Step:        floatPtr(child(n, "step")),
			Options:     buildOptions(child(n, "options")),
			PressValue:  intDefault(child(n, "press_value"), 1),
			Read:        buildSpecRead(child(n, "read")),
			Write:       buildSpecWrite(child(n, "write")),
		}

		if ent.Name == "" {
			ent.Name = ent.Key
		}

		// Current spellings win; legacy min/max fill the gap.
		ent.Minimum = floatPtr(child(n, "minimum"))
		if ent.Minimum == nil {
			ent.Minimum = floatPtr(child(n, "min"))
		}
		ent.Maximum = floatPtr(child(n, "maximum"))
		if ent.Maximum == nil {
			ent.Maximum = floatPtr(child(n, "max"))
		}

		entities = append(entities, ent)
	}

	return info, entities
}

func buildSpecRead(n *yaml.Node) *ReadSpec {
	if deref(n) == nil {
		return nil
	}
	t, addr, dt, wo, scale, bit := specFields(n)
	return &ReadSpec{Type: t, Address: addr, DataType: dt, WordOrder: wo, Scale: scale, Bit: bit}
}

func buildSpecWrite(n *yaml.Node) *WriteSpec {
	if deref(n) == nil {
		return nil
	}
	t, addr, dt, _, scale, bit := specFields(n)
	return &WriteSpec{Type: t, Address: addr, DataType: dt, Scale: scale, Bit: bit}
}

func specFields(n *yaml.Node) (RegType, uint16, DataType, WordOrder, float64, *int) {
	t := RegType(strVal(child(n, "type")))
	if t == "" {
		t = RegHolding
	}
	dt := DataType(strVal(child(n, "data_type")))
	if dt == "" {
		dt = Uint16
	}
	wo := WordOrder(strVal(child(n, "word_order")))
	if wo == "" {
		wo = WordOrderAB
	}

	addr := uint16(intDefault(child(n, "address"), 0))

	var scale float64
	if s := floatPtr(child(n, "scale")); s != nil {
		scale = *s
	}

	return t, addr, dt, wo, scale, intPtr(child(n, "bit"))
}

func buildOptions(n *yaml.Node) []Option {
	n = deref(n)
	if n == nil || len(n.Content) == 0 {
		return nil
	}

	out := make([]Option, 0, len(n.Content))
	for idx, item := range n.Content {
		item = deref(item)
		if isString(item) {
			// Bare label: the register value is the list index.
			out = append(out, Option{Label: item.Value, Value: idx})
			continue
		}
		out = append(out, Option{
			Label: strVal(child(item, "label")),
			Value: intDefault(child(item, "value"), 0),
		})
	}
	return out
}

// ---- SCALAR EXTRACTION ----

func strVal(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
		return ""
	}
	return n.Value
}

func intDefault(n *yaml.Node, def int) int {
	if p := intPtr(n); p != nil {
		return *p
	}
	return def
}

func intPtr(n *yaml.Node) *int {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return nil
	}
	var i int
	if err := n.Decode(&i); err != nil {
		return nil
	}
	return &i
}

func floatPtr(n *yaml.Node) *float64 {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || (n.Tag != "!!int" && n.Tag != "!!float") {
		return nil
	}
	var f float64
	if err := n.Decode(&f); err != nil {
		return nil
	}
	return &f
}
