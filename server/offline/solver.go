package offline

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/studysense/studysense/server/ai"
)

const solverFramework = "Offline solver framework:\n" +
	"1. Identify known values and unknowns.\n" +
	"2. Select formula/algorithm.\n" +
	"3. Substitute and simplify carefully.\n" +
	"4. Verify result with units and logic.\n\n" +
	"Send the exact equation, code snippet, or full problem text for a precise solution."

const imageNoTextAnswer = "Offline mode cannot read image content directly. " +
	"Please type the exact problem statement, and I will solve it step-by-step."

const imageLimitationPrefix = "I cannot parse the uploaded image offline, so I will solve from your typed text.\n\n"

// SolveOrChat implements ai.Provider. The offline tier cannot read
// images, so image requests get a limitation notice and the typed text is
// solved instead. The error is always nil.
func (m *Model) SolveOrChat(_ context.Context, req ai.SolveRequest) (string, error) {
	question := strings.Join(strings.Fields(req.Message), " ")
	if question == "" && req.HasImage() {
		return imageNoTextAnswer, nil
	}

	prefix := ""
	if req.HasImage() {
		prefix = imageLimitationPrefix
	}

	if answer, ok := solveArithmetic(question); ok {
		return prefix + answer, nil
	}
	if answer, ok := solveLinearEquation(question); ok {
		return prefix + answer, nil
	}
	return prefix + solverFramework, nil
}

var arithmeticExprRe = regexp.MustCompile(`^[0-9\.\+\-\*\/\(\)\s%*]+$`)

var questionPrefixes = []string{"calculate", "compute", "evaluate", "solve"}

// solveArithmetic evaluates a pure numeric expression. Questions wrapped
// in an imperative prefix ("calculate 2+2") are unwrapped first. Anything
// that cannot be parsed or evaluated safely yields ok=false.
func solveArithmetic(question string) (string, bool) {
	if question == "" {
		return "", false
	}

	candidate := strings.ReplaceAll(strings.TrimSpace(question), "^", "**")
	if !arithmeticExprRe.MatchString(candidate) {
		lowered := strings.ToLower(candidate)
		for _, prefix := range questionPrefixes {
			if strings.HasPrefix(lowered, prefix) {
				candidate = strings.Trim(candidate[len(prefix):], " :")
				break
			}
		}
	}
	if !arithmeticExprRe.MatchString(candidate) {
		return "", false
	}

	value, err := evalExpression(candidate)
	if err != nil {
		return "", false
	}

	return "Step-by-step:\n" +
		fmt.Sprintf("1. Expression recognized: %s\n", candidate) +
		"2. Evaluate by operator precedence.\n" +
		fmt.Sprintf("3. Final value = %s", formatNumber(value)), true
}

// formatNumber renders near-integers without a fraction and everything
// else with up to six trimmed decimal places. Magnitudes beyond int64
// range are printed from the float directly; converting them to int64
// would overflow.
func formatNumber(value float64) string {
	if math.Abs(value) >= 1<<62 {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	if math.Abs(value-math.Round(value)) < 1e-9 {
		return strconv.FormatInt(int64(math.Round(value)), 10)
	}
	text := strconv.FormatFloat(value, 'f', 6, 64)
	text = strings.TrimRight(text, "0")
	return strings.TrimRight(text, ".")
}

var linearEquationRe = regexp.MustCompile(
	`(?i)^\s*([+-]?\s*\d*\.?\d*)\s*x\s*([+-]\s*\d*\.?\d+)?\s*=\s*([+-]?\s*\d*\.?\d+)\s*$`)

func parseCoefficient(value string) (float64, error) {
	cleaned := strings.ReplaceAll(value, " ", "")
	switch cleaned {
	case "", "+":
		return 1, nil
	case "-":
		return -1, nil
	}
	return strconv.ParseFloat(cleaned, 64)
}

// solveLinearEquation solves ax + b = c for x.
func solveLinearEquation(question string) (string, bool) {
	match := linearEquationRe.FindStringSubmatch(question)
	if match == nil {
		return "", false
	}

	a, err := parseCoefficient(match[1])
	if err != nil {
		return "", false
	}
	b := 0.0
	if match[2] != "" {
		b, err = strconv.ParseFloat(strings.ReplaceAll(match[2], " ", ""), 64)
		if err != nil {
			return "", false
		}
	}
	c, err := strconv.ParseFloat(strings.ReplaceAll(match[3], " ", ""), 64)
	if err != nil {
		return "", false
	}

	if math.Abs(a) < 1e-12 {
		return "This equation has no single linear solution because coefficient of x is zero.", true
	}

	x := (c - b) / a
	return "Linear equation solution:\n" +
		fmt.Sprintf("1. Standard form: %sx + (%s) = %s\n", formatNumber(a), formatNumber(b), formatNumber(c)) +
		fmt.Sprintf("2. Rearranged: %sx = %s\n", formatNumber(a), formatNumber(c-b)) +
		fmt.Sprintf("3. x = %s", formatNumber(x)), true
}

// evalExpression evaluates an arithmetic expression over numeric literals
// with + - * / % // ** and parentheses, matching conventional precedence
// (power binds tighter than unary sign, which binds tighter than the
// multiplicative operators). Division or modulo by zero is an error.
func evalExpression(expr string) (float64, error) {
	tokens, err := tokenizeExpression(expr)
	if err != nil {
		return 0, err
	}
	parser := &exprParser{tokens: tokens}
	value, err := parser.parseExpr()
	if err != nil {
		return 0, err
	}
	if parser.pos != len(parser.tokens) {
		return 0, errors.Errorf("unexpected token %q", parser.tokens[parser.pos])
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, errors.New("expression result is not finite")
	}
	return value, nil
}

func tokenizeExpression(expr string) ([]string, error) {
	var tokens []string
	i := 0
	for i < len(expr) {
		ch := expr[i]
		switch {
		case ch == ' ' || ch == '\t':
			i++
		case ch >= '0' && ch <= '9' || ch == '.':
			start := i
			for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
				i++
			}
			tokens = append(tokens, expr[start:i])
		case ch == '*':
			if i+1 < len(expr) && expr[i+1] == '*' {
				tokens = append(tokens, "**")
				i += 2
			} else {
				tokens = append(tokens, "*")
				i++
			}
		case ch == '/':
			if i+1 < len(expr) && expr[i+1] == '/' {
				tokens = append(tokens, "//")
				i += 2
			} else {
				tokens = append(tokens, "/")
				i++
			}
		case ch == '+' || ch == '-' || ch == '%' || ch == '(' || ch == ')':
			tokens = append(tokens, string(ch))
			i++
		default:
			return nil, errors.Errorf("unsupported character %q", ch)
		}
	}
	if len(tokens) == 0 {
		return nil, errors.New("empty expression")
	}
	return tokens, nil
}

type exprParser struct {
	tokens []string
	pos    int
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case "+":
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value += right
		case "-":
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			value -= right
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		switch op {
		case "*", "/", "%", "//":
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			switch op {
			case "*":
				value *= right
			case "/":
				if right == 0 {
					return 0, errors.New("division by zero")
				}
				value /= right
			case "%":
				if right == 0 {
					return 0, errors.New("modulo by zero")
				}
				value = flooredMod(value, right)
			case "//":
				if right == 0 {
					return 0, errors.New("division by zero")
				}
				value = math.Floor(value / right)
			}
		default:
			return value, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	switch p.peek() {
	case "+":
		p.pos++
		return p.parseUnary()
	case "-":
		p.pos++
		value, err := p.parseUnary()
		return -value, err
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() != "**" {
		return base, nil
	}
	p.pos++
	// Right-associative; the exponent may carry its own sign.
	exponent, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exponent), nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	token := p.peek()
	if token == "(" {
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ")" {
			return 0, errors.New("unbalanced parentheses")
		}
		p.pos++
		return value, nil
	}
	if token == "" {
		return 0, errors.New("unexpected end of expression")
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", token)
	}
	p.pos++
	return value, nil
}

// flooredMod matches the sign convention where the result takes the sign
// of the divisor.
func flooredMod(a, b float64) float64 {
	result := math.Mod(a, b)
	if result != 0 && (result < 0) != (b < 0) {
		result += b
	}
	return result
}
