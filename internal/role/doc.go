// Package role administers roles and their permission links.
//
// Link updates come in two shapes. An id set is reconciled differentially:
// only added and removed links are written and stable links keep their row.
// A list of permission objects, accepted when no id set is given, replaces
// every link of the role. When neither is supplied the links stay as they are.
package role
