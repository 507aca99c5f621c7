// Package task defines the task record shared by the graph store, the status
// synchronizer and the scheduler, along with its enums, the hierarchical id
// grammar and the draft and patch types callers use to create and update
// tasks.
//
// Ids are dot-separated: "3" is a top-level task, "3.2" is the second child
// of "3". CompareIDs gives the natural ordering used wherever tasks are
// listed.
package task
