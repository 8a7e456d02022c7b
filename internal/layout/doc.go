// Package layout declares which store files exist and which tables each
// one holds.
//
// Layouts are written in CUE and checked against an embedded schema before
// use. The built-in forum layout (forum.cue) is returned by Default; a
// custom file can be loaded with Load. Bootstrap creates the tables a
// layout names that are not present yet and never touches existing ones.
package layout
