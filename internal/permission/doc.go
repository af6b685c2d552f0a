// Package permission manages the permission forest.
//
// Permissions form a forest through ParentID, where RootParentID (0) marks a
// root. The forest is never trusted to be acyclic: BuildTree stores nodes in
// an arena keyed by id and Forest walks it with a visited set, so corrupted
// parent links can only hide nodes, never loop.
package permission
