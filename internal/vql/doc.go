// Package vql implements the textual variant query language.
//
// A query is a boolean combination of predicates over the activities of one
// concurrency graph:
//
//	A -> B              A eventually followed by B
//	A => B              A directly followed by B
//	A || B              A concurrent with B
//	A -> B -> C         chains expand to (A -> B) AND (B -> C)
//	isStart(A)          A has no predecessor
//	isEnd(A)            A has no successor
//	isContained(A), A   A occurs in the graph
//	ALL{A, B} -> C      every listed activity satisfies the predicate
//	ANY{A, B} || C      at least one does
//	NOT p, p AND q, p OR q, (p)
//
// Activities are bare identifiers or quoted with ' or ". Precedence from
// loosest to tightest is OR, AND, NOT, predicate.
//
// Parser and Checker satisfy engine.Parser and engine.GraphChecker. Errors
// are *engine.LexError and *engine.ParseError with 0-based rune columns.
package vql
