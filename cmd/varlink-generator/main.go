// varlink-generator turns a varlink interface description file into a Go
// package with typed parameter structs, server reply helpers and client
// call constructors.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/varlink/go-varlink/varlink/idl"
)

func writeTypeString(b *bytes.Buffer, t *idl.Type) {
	switch t.Kind {
	case idl.TypeBool:
		b.WriteString("bool")

	case idl.TypeInt:
		b.WriteString("int64")

	case idl.TypeFloat:
		b.WriteString("float64")

	case idl.TypeString, idl.TypeEnum:
		b.WriteString("string")

	case idl.TypeArray:
		b.WriteString("[]")
		writeTypeString(b, t.ElementType)

	case idl.TypeAlias:
		b.WriteString(t.Alias + "_T")

	case idl.TypeStruct:
		b.WriteString("struct {")
		for i, field := range t.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(goName(field.Name) + " ")
			writeTypeString(b, field.Type)
		}
		b.WriteString("}")
	}
}

// goName turns a lowercase field name into an exported Go identifier.
func goName(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, "")
}

// writeType emits a struct declaration for t and reports whether it
// declared anything. Types without fields are skipped.
func writeType(b *bytes.Buffer, name string, omitempty bool, t *idl.Type) bool {
	if len(t.Fields) == 0 {
		return false
	}

	b.WriteString("type " + name + " struct {\n")
	for _, field := range t.Fields {
		b.WriteString("\t" + goName(field.Name) + " ")
		writeTypeString(b, field.Type)
		b.WriteString(" `json:\"" + field.Name)

		if omitempty {
			switch field.Type.Kind {
			case idl.TypeStruct, idl.TypeString, idl.TypeEnum, idl.TypeArray, idl.TypeAlias:
				b.WriteString(",omitempty")
			}
		}

		b.WriteString("\"`\n")
	}
	b.WriteString("}\n\n")
	return true
}

func writeMethodHelpers(b *bytes.Buffer, ifacename string, m *idl.Method) {
	hasIn := len(m.In.Fields) > 0
	hasOut := len(m.Out.Fields) > 0
	qualified := ifacename + "." + m.Name

	// Server reply helper
	b.WriteString("// Reply" + m.Name + " sends the reply to an " + qualified + " call.\n")
	if hasOut {
		b.WriteString("func Reply" + m.Name + "(c *varlink.Call, out " + m.Name + "_Out) error {\n")
		b.WriteString("\treturn c.Reply(&out)\n}\n\n")
	} else {
		b.WriteString("func Reply" + m.Name + "(c *varlink.Call) error {\n")
		b.WriteString("\treturn c.Reply(nil)\n}\n\n")
	}

	// Client call constructors
	inArg := ""
	inValue := "nil"
	if hasIn {
		inArg = ", in " + m.Name + "_In"
		inValue = "in"
	}

	b.WriteString("// Call" + m.Name + " calls " + qualified + " and waits for the reply.\n")
	if hasOut {
		b.WriteString("func Call" + m.Name + "(conn *varlink.Connection" + inArg + ") (" + m.Name + "_Out, error) {\n")
		b.WriteString("\tvar out " + m.Name + "_Out\n")
		b.WriteString("\terr := conn.Call(\"" + qualified + "\", " + inValue + ", &out)\n")
		b.WriteString("\treturn out, err\n}\n\n")
	} else {
		b.WriteString("func Call" + m.Name + "(conn *varlink.Connection" + inArg + ") error {\n")
		b.WriteString("\treturn conn.Call(\"" + qualified + "\", " + inValue + ", nil)\n}\n\n")
	}

	b.WriteString("// Send" + m.Name + " starts an " + qualified + " call with the given flags\n")
	b.WriteString("// and returns its reply iterator.\n")
	b.WriteString("func Send" + m.Name + "(conn *varlink.Connection" + inArg + ", flags uint64) (*varlink.Receiver, error) {\n")
	b.WriteString("\treturn conn.Send(\"" + qualified + "\", " + inValue + ", flags)\n}\n\n")
}

func writeErrorHelper(b *bytes.Buffer, ifacename string, e *idl.Error) {
	qualified := ifacename + "." + e.Name

	b.WriteString("// Reply" + e.Name + " sends the " + qualified + " error reply.\n")
	if e.Type != nil && len(e.Type.Fields) > 0 {
		b.WriteString("func Reply" + e.Name + "(c *varlink.Call, parameters " + e.Name + "_Error) error {\n")
		b.WriteString("\treturn c.ReplyError(\"" + qualified + "\", &parameters)\n}\n\n")
	} else {
		b.WriteString("func Reply" + e.Name + "(c *varlink.Call) error {\n")
		b.WriteString("\treturn c.ReplyError(\"" + qualified + "\", nil)\n}\n\n")
	}
}

// generateTemplate renders the Go source for one interface description.
func generateTemplate(description string) (string, []byte, error) {
	description = strings.TrimRight(description, "\n")

	midl, err := idl.New(description)
	if err != nil {
		return "", nil, err
	}

	pkgname := strings.Replace(midl.Name, ".", "", -1)

	var b bytes.Buffer
	b.WriteString("// Generated with varlink-generator -- https://github.com/varlink/go-varlink\n\n")
	b.WriteString("package " + pkgname + "\n\n")
	b.WriteString(`import "github.com/varlink/go-varlink/varlink"` + "\n\n")

	for _, member := range midl.Members {
		switch member := member.(type) {
		case *idl.Alias:
			writeType(&b, member.Name+"_T", true, member.Type)

		case *idl.Method:
			writeType(&b, member.Name+"_In", false, member.In)
			writeType(&b, member.Name+"_Out", true, member.Out)
			writeMethodHelpers(&b, midl.Name, member)

		case *idl.Error:
			if member.Type != nil {
				writeType(&b, member.Name+"_Error", true, member.Type)
			}
			writeErrorHelper(&b, midl.Name, member)
		}
	}

	b.WriteString("// New returns the interface definition to register with a\n")
	b.WriteString("// varlink.Service. Handlers are bound through the Methods map.\n")
	b.WriteString("func New() *varlink.InterfaceDefinition {\n" +
		"\treturn &varlink.InterfaceDefinition{\n" +
		"\t\tName:        `" + midl.Name + "`,\n" +
		"\t\tDescription: `" + midl.Description + "`,\n" +
		"\t\tMethods: varlink.MethodMap{\n")
	for _, member := range midl.Members {
		if m, ok := member.(*idl.Method); ok {
			b.WriteString("\t\t\t\"" + m.Name + `": nil,` + "\n")
		}
	}
	b.WriteString("\t\t},\n\t}\n}\n")

	return pkgname, b.Bytes(), nil
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s <file>\n", os.Args[0])
		os.Exit(1)
	}

	varlinkFile := os.Args[1]

	file, err := os.ReadFile(varlinkFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %s\n", varlinkFile, err)
		os.Exit(1)
	}

	pkgname, b, err := generateTemplate(string(file))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing file '%s': %s\n", varlinkFile, err)
		os.Exit(1)
	}

	filename := path.Join(path.Dir(varlinkFile), pkgname+".go")
	if err := os.WriteFile(filename, b, 0o660); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file '%s': %s\n", filename, err)
		os.Exit(1)
	}
}
