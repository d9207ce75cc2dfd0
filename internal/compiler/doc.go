// Package compiler turns CUE program documents into the AST. A document
// declares constants, symbols, matrices, Hamiltonians, measurements, and
// experiments; sections compile in that order so later sections can reference
// earlier names. Expressions are structured CUE values: numbers, identifier
// strings, {re, im} complex literals, and {op, args} operator nodes.
package compiler
