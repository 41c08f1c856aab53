package object

import (
	"fmt"
	"io"
	"strings"
)

// Show renders obj as text.
func Show(obj Object) string {
	var b strings.Builder
	ShowTo(&b, obj)
	return b.String()
}

// ShowTo renders obj into b. Types without a Show instance render as
// <'Name' At 0x...>.
func ShowTo(b *strings.Builder, obj Object) {
	if obj == nil {
		b.WriteString("nil")
		return
	}
	t := TypeOf(obj)
	if s := lookup[*ShowOps](t, CapShow); s != nil && s.Show != nil {
		s.Show(obj, b)
		return
	}
	fmt.Fprintf(b, "<'%s' At %p>", t.name, obj)
}

// Fprint writes obj's rendering to w.
func Fprint(w io.Writer, obj Object) (int, error) {
	return io.WriteString(w, Show(obj))
}

// Look parses input into obj and returns the number of bytes consumed.
func Look(obj Object, input string) int {
	ops := instanceOf[*ShowOps](obj, CapShow)
	if ops.Look == nil {
		methodMissing(obj, CapShow, "look")
	}
	return ops.Look(obj, input)
}

// Help describes a type from its Doc instance.
func Help(t *Type) string {
	var b strings.Builder
	d := lookup[*DocOps](t, CapDoc)
	if d == nil {
		fmt.Fprintf(&b, "# %s\n\nNo documentation available.\n", t.name)
		return b.String()
	}

	name := d.Name
	if name == "" {
		name = t.name
	}
	fmt.Fprintf(&b, "# %s\n", name)
	if d.Brief != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Brief)
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}
	if len(d.Examples) > 0 {
		b.WriteString("\n## Examples\n")
		for _, ex := range d.Examples {
			fmt.Fprintf(&b, "\n    %s\n", strings.ReplaceAll(ex, "\n", "\n    "))
		}
	}

	var caps []string
	for _, c := range Capabilities() {
		if t.Implements(c) {
			caps = append(caps, c.name)
		}
	}
	if len(caps) > 0 {
		fmt.Fprintf(&b, "\n## Instances\n\n%s\n", strings.Join(caps, ", "))
	}
	return b.String()
}
