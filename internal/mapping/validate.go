// internal/mapping/validate.go
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validation is collect-all: every structural problem in the document is
// reported, not just the first. Building typed entities happens only after
// validation passed (see build.go), so the builder may assume shape.

var (
	validPlatforms = []string{
		string(PlatformSensor),
		string(PlatformBinarySensor),
		string(PlatformNumber),
		string(PlatformSwitch),
		string(PlatformSelect),
		string(PlatformButton),
	}
	validReadTypes  = []string{string(RegHolding), string(RegInput), string(RegCoil), string(RegDiscrete)}
	validWriteTypes = []string{string(RegHolding)}
	validDataTypes  = []string{string(Uint16), string(Int16), string(Uint32), string(Int32), string(Float32)}
)

type validator struct {
	problems []Problem
}

func (v *validator) errAt(n *yaml.Node, path, msg string) {
	p := Problem{Path: path, Msg: msg}
	if n != nil {
		p.Line = n.Line
		p.Column = n.Column
	}
	v.problems = append(v.problems, p)
}

func (v *validator) warnAt(n *yaml.Node, path, msg string) {
	v.errAt(n, path, msg)
	v.problems[len(v.problems)-1].Warning = true
}

// validate checks the whole document and returns every problem found.
func validate(root *yaml.Node) []Problem {
	v := &validator{}

	root = deref(root)
	if root == nil || root.Kind != yaml.MappingNode {
		v.errAt(root, "root", "must be a mapping")
		return v.problems
	}

	v.device(child(root, "device"), root)
	v.entities(child(root, "entities"), root)

	return v.problems
}

func (v *validator) device(n, root *yaml.Node) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		at := n
		if at == nil {
			at = root
		}
		v.errAt(at, "device", "is required and must be a mapping")
		return
	}

	if name := child(n, "name"); name == nil {
		v.errAt(n, "device.name", "is required")
	} else {
		v.requireString(name, "device.name")
	}
	v.optionalString(child(n, "manufacturer"), "device.manufacturer")
	v.optionalString(child(n, "model"), "device.model")
}

func (v *validator) entities(n, root *yaml.Node) {
	n = deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		at := n
		if at == nil {
			at = root
		}
		v.errAt(at, "entities", "is required and must be a list")
		return
	}
	if len(n.Content) == 0 {
		v.errAt(n, "entities", "must not be empty")
		return
	}

	firstKey := map[string]*yaml.Node{}

	for i, e := range n.Content {
		where := fmt.Sprintf("entities[%d]", i)
		e = deref(e)
		if e == nil || e.Kind != yaml.MappingNode {
			v.errAt(e, where, "must be a mapping")
			continue
		}
		v.entity(e, where, firstKey)
	}
}

func (v *validator) entity(e *yaml.Node, where string, firstKey map[string]*yaml.Node) {
	platform := child(e, "platform")
	if platform == nil {
		v.errAt(e, where+".platform", "is required")
	} else if v.requireString(platform, where+".platform") {
		if !oneOf(platform.Value, validPlatforms) {
			v.errAt(platform, where+".platform",
				fmt.Sprintf("unsupported %q (allowed: %s)", platform.Value, strings.Join(sorted(validPlatforms), ", ")))
		}
	}

	key := child(e, "key")
	switch {
	case key == nil:
		v.errAt(e, where+".key", "is required")
	case !v.requireString(key, where+".key"):
	case key.Value == "":
		v.errAt(key, where+".key", "must not be empty")
	default:
		if first, dup := firstKey[key.Value]; dup {
			v.errAt(key, where+".key",
				fmt.Sprintf("duplicate key %q (first defined at line %d)", key.Value, first.Line))
		} else {
			firstKey[key.Value] = key
		}
	}

	for _, f := range []string{"name", "description", "unit", "icon", "device_class", "state_class"} {
		v.optionalString(child(e, f), where+"."+f)
	}

	v.optionalNumber(child(e, "minimum"), where+".minimum")
	v.optionalNumber(child(e, "maximum"), where+".maximum")
	v.optionalNumber(child(e, "min"), where+".min")
	v.optionalNumber(child(e, "max"), where+".max")
	v.optionalNumber(child(e, "step"), where+".step")

	// Legacy spellings are accepted, but mixing old and new is ambiguous.
	if child(e, "min") != nil && child(e, "minimum") != nil {
		v.errAt(e, where, "both 'min' and 'minimum' present; use only 'minimum'")
	}
	if child(e, "max") != nil && child(e, "maximum") != nil {
		v.errAt(e, where, "both 'max' and 'maximum' present; use only 'maximum'")
	}

	if pv := child(e, "press_value"); pv != nil {
		v.requireInt(pv, where+".press_value")
	}
	v.options(child(e, "options"), where+".options")

	v.section(child(e, "read"), where+".read", validReadTypes)
	v.section(child(e, "write"), where+".write", validWriteTypes)

	// Settable entities without a write section are a likely authoring
	// mistake, but not fatal.
	if platform != nil && platform.Value == string(PlatformNumber) && child(e, "write") == nil {
		v.warnAt(e, where, "platform 'number' usually requires a 'write' section")
	}
}

func (v *validator) section(n *yaml.Node, where string, allowedTypes []string) {
	if n == nil {
		return
	}
	n = deref(n)
	if n.Kind != yaml.MappingNode {
		v.errAt(n, where, "must be a mapping")
		return
	}

	t := child(n, "type")
	if t == nil {
		v.errAt(n, where+".type", "is required")
	} else if v.requireString(t, where+".type") {
		if !oneOf(t.Value, allowedTypes) {
			v.errAt(t, where+".type",
				fmt.Sprintf("unsupported %q (allowed: %s)", t.Value, strings.Join(sorted(allowedTypes), ", ")))
		}
	}

	addr := child(n, "address")
	a, haveAddr := 0, false
	if addr == nil {
		v.errAt(n, where+".address", "is required")
	} else if a, haveAddr = v.requireIntValue(addr, where+".address"); haveAddr {
		if a < 0 {
			v.errAt(addr, where+".address", "must be >= 0")
			haveAddr = false
		} else if a > 0xFFFF {
			v.errAt(addr, where+".address", "must be <= 65535")
			haveAddr = false
		}
	}

	width := 1
	if dt := child(n, "data_type"); dt != nil && v.requireString(dt, where+".data_type") {
		if !oneOf(dt.Value, validDataTypes) {
			v.errAt(dt, where+".data_type",
				fmt.Sprintf("unsupported %q (allowed: %s)", dt.Value, strings.Join(sorted(validDataTypes), ", ")))
		} else {
			width = int(DataType(dt.Value).Width())
		}
	}

	// A multi-register value must fit inside the 16-bit address space.
	if haveAddr && a+width-1 > 0xFFFF {
		v.errAt(addr, where+".address",
			fmt.Sprintf("%d-register value at %d extends past address 65535", width, a))
	}

	if wo := child(n, "word_order"); wo != nil {
		if !isString(wo) || (wo.Value != string(WordOrderAB) && wo.Value != string(WordOrderBA)) {
			v.errAt(wo, where+".word_order", "must be 'AB' or 'BA'")
		}
	}

	v.optionalNumber(child(n, "scale"), where+".scale")

	if bit := child(n, "bit"); bit != nil {
		if b, ok := v.requireIntValue(bit, where+".bit"); ok && (b < 0 || b > 15) {
			v.errAt(bit, where+".bit", "must be in range 0..15")
		}
	}
}

func (v *validator) options(n *yaml.Node, where string) {
	if n == nil {
		return
	}
	n = deref(n)
	if n.Kind != yaml.SequenceNode {
		v.errAt(n, where, "must be a list")
		return
	}
	for i, item := range n.Content {
		item = deref(item)
		p := fmt.Sprintf("%s[%d]", where, i)
		switch {
		case isString(item):
			// bare label; value is the index
		case item != nil && item.Kind == yaml.MappingNode:
			label := child(item, "label")
			if label == nil {
				v.errAt(item, p+".label", "is required")
			} else {
				v.requireString(label, p+".label")
			}
			value := child(item, "value")
			if value == nil {
				v.errAt(item, p+".value", "is required")
			} else {
				v.requireInt(value, p+".value")
			}
		default:
			v.errAt(item, p, "must be a string or a {label, value} mapping")
		}
	}
}

// ---- SCALAR CHECKS ----

func (v *validator) requireString(n *yaml.Node, path string) bool {
	if !isString(n) {
		v.errAt(n, path, "must be a string")
		return false
	}
	return true
}

// optionalString accepts absent and explicit-null values.
func (v *validator) optionalString(n *yaml.Node, path string) {
	if n == nil || isNull(n) {
		return
	}
	if !isString(n) {
		v.errAt(n, path, "must be a string or null")
	}
}

func (v *validator) requireInt(n *yaml.Node, path string) bool {
	_, ok := v.requireIntValue(n, path)
	return ok
}

func (v *validator) requireIntValue(n *yaml.Node, path string) (int, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		// YAML booleans coerce to 0/1 in many loaders; reject them here.
		if n != nil && n.Tag == "!!bool" {
			v.errAt(n, path, "must be an integer (not bool)")
		} else {
			v.errAt(n, path, "must be an integer")
		}
		return 0, false
	}
	var i int
	if err := n.Decode(&i); err != nil {
		v.errAt(n, path, "must be an integer")
		return 0, false
	}
	return i, true
}

func (v *validator) optionalNumber(n *yaml.Node, path string) {
	if n == nil {
		return
	}
	n = deref(n)
	if n.Kind != yaml.ScalarNode || (n.Tag != "!!int" && n.Tag != "!!float") {
		if n.Tag == "!!bool" {
			v.errAt(n, path, "must be a number (not bool)")
		} else {
			v.errAt(n, path, "must be a number")
		}
	}
}

// ---- NODE HELPERS ----

// deref resolves alias nodes and unwraps single-document nodes.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		default:
			return n
		}
	}
	return nil
}

// child returns the value node for key within a mapping node.
func child(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func isString(n *yaml.Node) bool {
	n = deref(n)
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}

func isNull(n *yaml.Node) bool {
	n = deref(n)
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func oneOf(s string, set []string) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}

func sorted(set []string) []string {
	out := append([]string(nil), set...)
	sort.Strings(out)
	return out
}
