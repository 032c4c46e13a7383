package cmd

import (
	"log/slog"

	"exprc/pkg/compiler"
)

// compileTraced runs the pipeline one stage at a time, logging each stage's
// output at debug level. Errors come back wrapped with the source.
func compileTraced(src string, target compiler.Target) (string, error) {
	slog.Debug("source", "expr", src)

	tokens, err := compiler.Lex(src)
	if err != nil {
		return "", withSource(src, err)
	}
	slog.Debug("lexed", "count", len(tokens))
	for _, tok := range tokens {
		slog.Debug("token", "kind", tok.Kind, "lexeme", tok.Lexeme, "pos", tok.Pos)
	}

	node, err := compiler.Parse(tokens)
	if err != nil {
		return "", withSource(src, err)
	}
	slog.Debug("parsed", "ast", node.String())

	asm := compiler.Generate(node, target)
	slog.Debug("generated", "bytes", len(asm), "entry", target.Entry)
	return asm, nil
}
