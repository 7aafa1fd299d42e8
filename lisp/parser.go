package lisp

// Parse reads every top-level form in src.
//
// Nesting is tracked with an explicit stack of unfinished lists rather than
// recursion, so arbitrarily deep input cannot exhaust the Go stack here.
func Parse(src string) ([]Value, error) {
	var (
		stack   [][]Value
		opens   []int
		current = []Value{}
	)
	for tok, err := range Tokens(src) {
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokLParen:
			stack = append(stack, current)
			opens = append(opens, tok.Pos)
			current = []Value{}
		case TokRParen:
			if len(stack) == 0 {
				return nil, &UnmatchedParenError{Pos: tok.Pos}
			}
			closed := Lst(current...)
			current = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			opens = opens[:len(opens)-1]
			current = append(current, closed)
		default:
			current = append(current, Atom(tok.Text))
		}
	}
	if len(stack) > 0 {
		return nil, &UnmatchedParenError{Pos: opens[len(opens)-1], Unclose: true}
	}
	return current, nil
}

// ParseOne parses src and requires it to hold exactly one form.
func ParseOne(src string) (Value, error) {
	exprs, err := Parse(src)
	if err != nil {
		return Void(), err
	}
	if len(exprs) != 1 {
		return Void(), &FormCountError{Got: len(exprs)}
	}
	return exprs[0], nil
}
