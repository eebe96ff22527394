// Package idl parses varlink interface description files.
package idl

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// TypeKind tells the kind of a Type node.
type TypeKind uint

const (
	TypeBool TypeKind = iota
	TypeInt
	TypeFloat
	TypeString
	TypeArray
	TypeStruct
	TypeEnum
	TypeAlias
)

// Type is one node of a parsed varlink type expression.
type Type struct {
	Kind        TypeKind
	ElementType *Type
	Alias       string
	Fields      []TypeField
}

// TypeField is one named member of a struct or enum type.
type TypeField struct {
	Name string
	Type *Type
}

// Alias is a named type declared with the type keyword.
type Alias struct {
	Name string
	Doc  string
	Type *Type
}

// Method is a declared method with its input and output parameters.
type Method struct {
	Name string
	Doc  string
	In   *Type
	Out  *Type
}

// Error is a declared error with its parameters.
type Error struct {
	Name string
	Doc  string
	Type *Type
}

// IDL is a parsed varlink interface description. Members holds the
// aliases, methods and errors in declaration order.
type IDL struct {
	Name        string
	Doc         string
	Description string
	Members     []interface{}
	Aliases     map[string]*Alias
	Methods     map[string]*Method
	Errors      map[string]*Error
}

type parser struct {
	input       string
	position    int
	lineStart   int
	lastComment bytes.Buffer
}

func (p *parser) next() int {
	r := -1

	if p.position < len(p.input) {
		r = int(p.input[p.position])
	}

	p.position += 1
	return r
}

func (p *parser) backup() {
	p.position -= 1
}

func (p *parser) advance() bool {
	for {
		char := p.next()

		if char == '\n' {
			p.lineStart = p.position
			p.lastComment.Reset()

		} else if char == ' ' || char == '\t' {
			// ignore

		} else if char == '#' {
			p.next()
			start := p.position
			for {
				c := p.next()
				if c < 0 || c == '\n' {
					p.backup()
					break
				}
			}
			if p.lastComment.Len() > 0 {
				p.lastComment.WriteByte('\n')
			}
			p.lastComment.WriteString(p.input[start:p.position])
			p.next()

		} else {
			p.backup()
			break
		}
	}

	return p.position < len(p.input)
}

func (p *parser) advanceOnLine() {
	for {
		char := p.next()
		if char != ' ' {
			p.backup()
			return
		}
	}
}

func (p *parser) readKeyword() string {
	start := p.position

	for {
		char := p.next()
		if char < 'a' || char > 'z' {
			p.backup()
			break
		}
	}

	return p.input[start:p.position]
}

func (p *parser) readInterfaceName() string {
	start := p.position

	for {
		char := p.next()
		if (char < 'a' || char > 'z') && char != '-' && char != '.' {
			p.backup()
			break
		}
	}

	name := p.input[start:p.position]
	if len(name) < 3 || len(name) > 255 {
		return ""
	}

	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}

	for _, part := range parts {
		if len(part) == 0 || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return ""
		}
	}

	return name
}

func (p *parser) readFieldName() string {
	start := p.position

	char := p.next()
	if (char < 'a' || char > 'z') && char != '_' {
		p.backup()
		return ""
	}

	for {
		char := p.next()
		if (char < 'a' || char > 'z') && (char < '0' || char > '9') && char != '_' {
			p.backup()
			break
		}
	}

	return p.input[start:p.position]
}

func (p *parser) readTypeName() string {
	start := p.position

	for {
		char := p.next()
		if (char < 'A' || char > 'Z') && (char < 'a' || char > 'z') && (char < '0' || char > '9') {
			p.backup()
			break
		}
	}

	return p.input[start:p.position]
}

func (p *parser) readStructType() *Type {
	if p.next() != '(' {
		p.backup()
		return nil
	}

	t := &Type{Kind: TypeStruct}
	t.Fields = make([]TypeField, 0)

	char := p.next()
	if char != ')' {
		p.backup()

		for {
			field := TypeField{}

			p.advance()
			field.Name = p.readFieldName()
			if field.Name == "" {
				return nil
			}

			p.advance()

			// Enums have no types, they are just a list of names
			if p.next() == ':' {
				if t.Kind == TypeEnum {
					return nil
				}

				p.advance()
				field.Type = p.readType()
				if field.Type == nil {
					return nil
				}

			} else {
				t.Kind = TypeEnum
				p.backup()
			}

			t.Fields = append(t.Fields, field)

			p.advance()
			char = p.next()
			if char != ',' {
				break
			}
		}

		if char != ')' {
			return nil
		}
	}

	return t
}

func (p *parser) readType() *Type {
	var t *Type

	if keyword := p.readKeyword(); keyword != "" {
		switch keyword {
		case "bool":
			t = &Type{Kind: TypeBool}

		case "int":
			t = &Type{Kind: TypeInt}

		case "float":
			t = &Type{Kind: TypeFloat}

		case "string":
			t = &Type{Kind: TypeString}
		}

	} else if name := p.readTypeName(); name != "" {
		t = &Type{Kind: TypeAlias, Alias: name}

	} else if t = p.readStructType(); t == nil {
		return nil
	}

	if p.next() == '[' {
		if p.next() != ']' {
			return nil
		}
		t = &Type{Kind: TypeArray, ElementType: t}

	} else {
		p.backup()
	}

	return t
}

func (p *parser) readAlias() (*Alias, error) {
	a := &Alias{}

	p.advance()
	a.Doc = p.lastComment.String()
	a.Name = p.readTypeName()
	if a.Name == "" {
		return nil, errors.New("missing type name")
	}

	p.advance()
	a.Type = p.readType()
	if a.Type == nil {
		return nil, errors.New("missing type declaration")
	}

	return a, nil
}

func (p *parser) readMethod() (*Method, error) {
	m := &Method{}

	p.advance()
	m.Doc = p.lastComment.String()
	m.Name = p.readTypeName()
	if m.Name == "" {
		return nil, errors.New("missing method name")
	}

	p.advance()
	m.In = p.readType()
	if m.In == nil {
		return nil, errors.New("missing method input")
	}

	p.advance()
	one := p.next()
	two := p.next()
	if (one != '-') || two != '>' {
		return nil, errors.New("missing method '->' operator")
	}

	p.advance()
	m.Out = p.readType()
	if m.Out == nil {
		return nil, errors.New("missing method output")
	}

	return m, nil
}

func (p *parser) readError() (*Error, error) {
	e := &Error{}

	p.advance()
	e.Doc = p.lastComment.String()
	e.Name = p.readTypeName()
	if e.Name == "" {
		return nil, errors.New("missing error name")
	}

	p.advanceOnLine()
	e.Type = p.readType()

	return e, nil
}

func (p *parser) readIDL() (*IDL, error) {
	if keyword := p.readKeyword(); keyword != "interface" {
		return nil, errors.New("missing interface keyword")
	}

	idl := &IDL{
		Members: make([]interface{}, 0),
		Aliases: make(map[string]*Alias),
		Methods: make(map[string]*Method),
		Errors:  make(map[string]*Error),
	}

	p.advance()
	idl.Doc = p.lastComment.String()
	idl.Name = p.readInterfaceName()
	if idl.Name == "" {
		return nil, errors.New("invalid interface name")
	}

	for {
		if !p.advance() {
			break
		}

		switch keyword := p.readKeyword(); keyword {
		case "type":
			a, err := p.readAlias()
			if err != nil {
				return nil, err
			}

			idl.Members = append(idl.Members, a)
			idl.Aliases[a.Name] = a

		case "method":
			m, err := p.readMethod()
			if err != nil {
				return nil, err
			}

			idl.Members = append(idl.Members, m)
			idl.Methods[m.Name] = m

		case "error":
			e, err := p.readError()
			if err != nil {
				return nil, err
			}

			idl.Members = append(idl.Members, e)
			idl.Errors[e.Name] = e

		default:
			return nil, errors.Errorf("unknown keyword '%s'", keyword)
		}
	}

	return idl, nil
}

// New parses a varlink interface description.
func New(description string) (*IDL, error) {
	p := &parser{input: description}

	p.advance()
	idl, err := p.readIDL()
	if err != nil {
		return nil, err
	}

	if p.advance() {
		return nil, errors.Errorf("trailing input: %s", p.input[p.position:])
	}

	idl.Description = description
	return idl, nil
}
