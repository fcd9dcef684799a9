package models

// Mark and relation names are free strings in storage. The fixed sets
// below only constrain what the workflows touch; user-created marks
// outside them pass through untouched.

// Blocking relation vocabulary. A mark with one of these names mirrors
// a pkg_relation row of the same relation value.
const (
	RelationOutdatedDep = "outdated_dep"
	RelationMissingDep  = "missing_dep"
)

// BlockingRelations ties mark removal to relation removal during
// cascade resolution
var BlockingRelations = []string{RelationOutdatedDep, RelationMissingDep}

// BlockingMarks is the fixed set cleared from a package when it
// completes
var BlockingMarks = []string{
	"outdated",
	"stuck",
	"ready",
	RelationOutdatedDep,
	RelationMissingDep,
	"unknown",
	"ignore",
	"failing",
}

// IsBlockingRelation reports whether name belongs to the blocking
// relation vocabulary
func IsBlockingRelation(name string) bool {
	for _, r := range BlockingRelations {
		if r == name {
			return true
		}
	}
	return false
}

// TriggerStatus is the status-kind enum accepted on the trigger routes
type TriggerStatus string

const (
	// StatusFTBFS means the package fails to build from source
	StatusFTBFS TriggerStatus = "ftbfs"
	// StatusLeaf means the package has no reverse dependencies left
	StatusLeaf TriggerStatus = "leaf"
)

// ValidForCompletion reports whether s may trigger the completion
// workflow (/delete route)
func (s TriggerStatus) ValidForCompletion() bool {
	return s == StatusFTBFS || s == StatusLeaf
}

// ValidForFailureReport reports whether s may trigger the CI failure
// report (/add route)
func (s TriggerStatus) ValidForFailureReport() bool {
	return s == StatusFTBFS
}
