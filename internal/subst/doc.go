// Package subst implements variable substitution for configuration values.
//
// The grammar is small but recursive:
//
//	text      = { literal | reference }
//	reference = "${" keyExpr [ ":-" defaultExpr ] "}"
//
// keyExpr and defaultExpr may themselves contain references, so the input is
// scanned with a cursor and nesting depth instead of a regular expression.
//
//	${LOG_DIR:-${HOME}/logs}/app.log
package subst
