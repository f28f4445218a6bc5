// Package rules parses the line-oriented synonym rule syntax.
//
// Each line is one rule. A line with "=>" maps every term on its left to the
// terms on its right; a line without it lists mutually equivalent terms.
// Terms are separated by commas. A backslash escapes the following character,
// and a '#' in the first column starts a comment:
//
//	# comment
//	ipod, i-pod, i pod
//	quick => fast, rapid
//	a\,b => c
package rules
