// Package mockfactory implements a distributed, column-oriented record
// store. Rows are partitioned across a fixed process group and,
// independently, across a variable number of backing files; any rank can
// read or write any contiguous global row range transparently.
//
// A Catalog holds, per rank, a mapping from column name to a locally
// resident array, optionally backed by a partitioned file (pfile.File) from
// which missing columns are materialized on first access. Operations whose
// name starts with C (CSize, CGet, CSlice, CSum, ...) are collective: every
// rank of the group must invoke them in the same order, or the group
// deadlocks. Purely local operations (Set, Delete, Has, Size) are not.
package mockfactory
