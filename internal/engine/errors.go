package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// CodeLexError indicates the textual query could not be tokenized.
	CodeLexError ErrorCode = "LEX_ERROR"

	// CodeParseError indicates the textual query is not well formed.
	CodeParseError ErrorCode = "PARSE_ERROR"

	// CodeInvalidQueryType indicates an unrecognized query type name.
	CodeInvalidQueryType ErrorCode = "INVALID_QUERY_TYPE"

	// CodePatternDeserialization indicates a malformed serialized pattern.
	CodePatternDeserialization ErrorCode = "PATTERN_DESERIALIZATION"

	// CodeMatchEvaluation wraps any fault raised while matching.
	CodeMatchEvaluation ErrorCode = "MATCH_EVALUATION"

	// CodeUnknownNodeType indicates an unrecognized logical node tag.
	CodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"

	// CodeInvalidExpression indicates a malformed logical expression.
	CodeInvalidExpression ErrorCode = "INVALID_EXPRESSION"

	// CodeEvaluationCancelled indicates the context ended before evaluation
	// finished.
	CodeEvaluationCancelled ErrorCode = "EVALUATION_CANCELLED"
)

// QueryError is the failure half of a MatchResult.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Position is the 0-based column of the offending input, when known.
	// Only lexing and parsing errors carry one.
	Position *int
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Position != nil {
		return fmt.Sprintf("%s: %s (column %d)", e.Code, e.Message, *e.Position)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewQueryError creates a QueryError without a position.
func NewQueryError(code ErrorCode, message string) *QueryError {
	return &QueryError{Code: code, Message: message}
}

// NewPositionedError creates a QueryError pointing at a column.
func NewPositionedError(code ErrorCode, message string, column int) *QueryError {
	return &QueryError{Code: code, Message: message, Position: &column}
}

// LexError is returned by a Parser when the input cannot be tokenized.
type LexError struct {
	Message string
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at column %d: %s", e.Column, e.Message)
}

// ParseError is returned by a Parser when the token stream is not a query.
type ParseError struct {
	Message string
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at column %d: %s", e.Column, e.Message)
}

// IsCancelled reports whether err is an EVALUATION_CANCELLED query error or
// a context error.
func IsCancelled(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return hasCode(err, CodeEvaluationCancelled)
}

// IsMatchError reports whether err is a MATCH_EVALUATION query error.
func IsMatchError(err error) bool {
	return hasCode(err, CodeMatchEvaluation)
}

func hasCode(err error, code ErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

// classify converts any error raised below an evaluator boundary into a
// QueryError. Unrecognized errors are match faults.
func classify(err error) *QueryError {
	var (
		qe  *QueryError
		le  *LexError
		pe  *ParseError
		de  *pattern.DecodeError
		ite *queryir.InvalidQueryTypeError
		ue  *queryir.UnknownNodeTypeError
		ee  *queryir.ExpressionError
	)
	switch {
	case errors.As(err, &qe):
		return qe
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewQueryError(CodeEvaluationCancelled, err.Error())
	case errors.As(err, &le):
		return NewPositionedError(CodeLexError, le.Message, le.Column)
	case errors.As(err, &pe):
		return NewPositionedError(CodeParseError, pe.Message, pe.Column)
	case errors.As(err, &de):
		return NewQueryError(CodePatternDeserialization, de.Error())
	case errors.As(err, &ite):
		return NewQueryError(CodeInvalidQueryType, ite.Error())
	case errors.As(err, &ue):
		return NewQueryError(CodeUnknownNodeType, ue.Error())
	case errors.As(err, &ee):
		return NewQueryError(CodeInvalidExpression, ee.Error())
	default:
		return NewQueryError(CodeMatchEvaluation, err.Error())
	}
}

// cancelled returns an EVALUATION_CANCELLED error if ctx has ended.
func cancelled(ctx context.Context) *QueryError {
	if err := ctx.Err(); err != nil {
		return NewQueryError(CodeEvaluationCancelled, err.Error())
	}
	return nil
}

// recovered turns a recovered panic value into a match fault.
func recovered(r any) *QueryError {
	return NewQueryError(CodeMatchEvaluation, fmt.Sprintf("panic during evaluation: %v", r))
}
