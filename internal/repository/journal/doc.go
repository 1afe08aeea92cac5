// Package journal persists the stage transitions of boot runs.
//
// The FileRepository appends one tab-separated line per transition:
// timestamp, stage entered, outcome. Lines are never rewritten, so the file
// doubles as a history of every boot on the machine.
package journal
