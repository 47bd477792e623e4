package machine

import (
	"strconv"
	"strings"
)

// SymbolTable is the parser's output alongside the op stream: names
// resolved to addresses, used both to resolve forward references
// during parsing and to place literal content in Memory afterward.
//
// Offsets is a single map shared across labels, strings and data —
// confirmed against the reference implementation's own parser test,
// which looks up a string literal's address through the same
// `offsets` map a label address comes from. Strings and Data hold the
// literal content a label offset never needs. Offsets holds one
// address per name, and names are not kept apart by category: string
// and data addresses are recorded after every label, so a name
// declared in more than one category resolves to the address recorded
// last (data over string over label); there is no label-first lookup.
type SymbolTable struct {
	Offsets map[string]Word
	Strings map[string]string
	Data    map[string][]Word

	stringOrder []string
	dataOrder   []string
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		Offsets: make(map[string]Word),
		Strings: make(map[string]string),
		Data:    make(map[string][]Word),
	}
}

type pendingInstruction struct {
	mnemonic string
	args     []Token
	lineNo   int
}

// Parser runs the two-pass assemble spec.md section 4.3 describes:
// a first pass collecting labels and string/data declarations with
// offsets, and a second pass emitting ops with symbol references
// resolved.
type Parser struct {
	symbols      *SymbolTable
	instructions []pendingInstruction
}

// Parse tokenizes and assembles source into an op stream plus the
// symbol table recording every label, string and data offset.
func Parse(source string) ([]Op, *SymbolTable, error) {
	p := &Parser{symbols: newSymbolTable()}
	if err := p.firstPass(source); err != nil {
		return nil, nil, err
	}
	ops, err := p.secondPass()
	if err != nil {
		return nil, nil, err
	}
	return ops, p.symbols, nil
}

type pendingString struct {
	name string
	text string
}

type pendingData struct {
	name  string
	words []Word
}

func (p *Parser) firstPass(source string) error {
	var codeOffset int
	var pendingStrings []pendingString
	var datas []pendingData

	for lineNo, raw := range strings.Split(source, "\n") {
		lx, err := Lex(raw)
		if err != nil {
			return err
		}
		if lx.Len() == 0 {
			continue
		}

		first, err := lx.Peek(0)
		if err != nil {
			return err
		}

		switch first.Kind {
		case TokenLabelColon:
			if lx.Len() != 1 {
				return ErrInvalidLabelDescription
			}
			if _, exists := p.symbols.Offsets[first.Text]; exists {
				return ErrDuplicateLabelDefinition
			}
			p.symbols.Offsets[first.Text] = Word(codeOffset)

		case TokenDirective:
			lx.Next()
			switch first.Text {
			case ".string":
				name, text, err := parseStringDirective(lx)
				if err != nil {
					return err
				}
				if _, exists := p.symbols.Strings[name]; exists {
					return ErrDuplicateStringDefinition
				}
				p.symbols.Strings[name] = text
				p.symbols.stringOrder = append(p.symbols.stringOrder, name)
				pendingStrings = append(pendingStrings, pendingString{name: name, text: text})

			case ".data":
				name, words, err := parseDataDirective(lx)
				if err != nil {
					return err
				}
				p.symbols.Data[name] = words
				p.symbols.dataOrder = append(p.symbols.dataOrder, name)
				datas = append(datas, pendingData{name: name, words: words})

			default:
				return ErrInvalidIdentifier
			}

		case TokenIdent:
			mnemonic, err := lx.Next()
			if err != nil {
				return err
			}
			code, ok := LookupMnemonic(mnemonic.Text)
			if !ok {
				return UndefinedInstructionError{Name: mnemonic.Text}
			}

			var args []Token
			for lx.Remaining() > 0 {
				a, err := lx.Next()
				if err != nil {
					return err
				}
				args = append(args, a)
			}

			op := Op{Code: code}
			p.instructions = append(p.instructions, pendingInstruction{
				mnemonic: mnemonic.Text,
				args:     args,
				lineNo:   lineNo,
			})
			codeOffset += op.Arity()
			if codeOffset >= MemorySize {
				return ErrProgramTooLarge
			}

		default:
			return ErrInvalidArgToken
		}
	}

	dataBase := codeOffset + 1 // +1 for the trailing Eof word Compile appends

	for _, s := range pendingStrings {
		if dataBase >= MemorySize {
			return ErrProgramTooLarge
		}
		p.symbols.Offsets[s.name] = Word(dataBase)
		dataBase += len(s.text) + 1 // +1 for the null terminator
	}
	for _, d := range datas {
		if dataBase >= MemorySize {
			return ErrProgramTooLarge
		}
		p.symbols.Offsets[d.name] = Word(dataBase)
		dataBase += len(d.words)
	}
	if dataBase >= MemorySize {
		return ErrProgramTooLarge
	}

	return nil
}

func parseStringDirective(lx *Lexer) (name, text string, err error) {
	nameTok, err := lx.Next()
	if err != nil {
		return "", "", err
	}
	if nameTok.Kind != TokenIdent {
		return "", "", ErrInvalidIdentifier
	}
	valTok, err := lx.Next()
	if err != nil {
		return "", "", err
	}
	if valTok.Kind != TokenString {
		return "", "", ErrInvalidStringValue
	}
	return nameTok.Text, valTok.Text, nil
}

func parseDataDirective(lx *Lexer) (name string, words []Word, err error) {
	nameTok, err := lx.Next()
	if err != nil {
		return "", nil, err
	}
	if nameTok.Kind != TokenIdent {
		return "", nil, ErrInvalidIdentifier
	}
	for lx.Remaining() > 0 {
		tok, err := lx.Next()
		if err != nil {
			return "", nil, err
		}
		v, err := wordFromNumericToken(tok)
		if err != nil {
			return "", nil, ErrInvalidByteValue
		}
		words = append(words, v)
	}
	if len(words) == 0 {
		return "", nil, ErrInvalidByteValue
	}
	return nameTok.Text, words, nil
}

func wordFromNumericToken(tok Token) (Word, error) {
	switch tok.Kind {
	case TokenNumber:
		v, err := strconv.ParseUint(tok.Text, 10, 32)
		if err != nil || v > MaxWord {
			return 0, InvalidDecimalDigitError{Text: tok.Text}
		}
		return Word(v), nil
	case TokenHex:
		v, err := strconv.ParseUint(tok.Text[2:], 16, 32)
		if err != nil || v > MaxWord {
			return 0, InvalidHexDigitError{Text: tok.Text}
		}
		return Word(v), nil
	default:
		return 0, ErrInvalidArgToken
	}
}

func (p *Parser) secondPass() ([]Op, error) {
	ops := make([]Op, 0, len(p.instructions))

	for _, inst := range p.instructions {
		code, _ := LookupMnemonic(inst.mnemonic)
		op := Op{Code: code}

		if code.HasArg() {
			if len(inst.args) != 1 {
				return nil, InvalidArgumentError{Errors: []error{ErrInvalidArgToken}}
			}
			v, err := p.resolveArg(inst.args[0])
			if err != nil {
				return nil, InvalidArgumentError{Errors: []error{err}}
			}
			op.Arg = v
		} else if len(inst.args) != 0 {
			return nil, InvalidArgumentError{Errors: []error{ErrInvalidArgToken}}
		}

		ops = append(ops, op)
	}

	return ops, nil
}

// resolveArg resolves one instruction operand: a numeric literal
// directly, or an identifier through the single Offsets map (see
// SymbolTable for how a name reused across categories resolves).
func (p *Parser) resolveArg(tok Token) (Word, error) {
	switch tok.Kind {
	case TokenNumber, TokenHex:
		return wordFromNumericToken(tok)
	case TokenIdent:
		if v, ok := p.symbols.Offsets[tok.Text]; ok {
			return v, nil
		}
		return 0, ErrUndefinedSymbols
	default:
		return 0, ErrInvalidArgToken
	}
}
