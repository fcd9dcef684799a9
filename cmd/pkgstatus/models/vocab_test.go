package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockingRelation(t *testing.T) {
	assert.True(t, IsBlockingRelation(RelationOutdatedDep))
	assert.True(t, IsBlockingRelation(RelationMissingDep))
	assert.False(t, IsBlockingRelation("related_to"))
	assert.False(t, IsBlockingRelation(""))
}

func TestBlockingMarksIncludeRelationVocabulary(t *testing.T) {
	set := make(map[string]bool, len(BlockingMarks))
	for _, name := range BlockingMarks {
		set[name] = true
	}

	for _, rel := range BlockingRelations {
		assert.True(t, set[rel], "relation %q must also be a clearable mark", rel)
	}
}

func TestTriggerStatus(t *testing.T) {
	assert.True(t, StatusFTBFS.ValidForCompletion())
	assert.True(t, StatusLeaf.ValidForCompletion())
	assert.False(t, TriggerStatus("done").ValidForCompletion())

	assert.True(t, StatusFTBFS.ValidForFailureReport())
	assert.False(t, StatusLeaf.ValidForFailureReport())
}
