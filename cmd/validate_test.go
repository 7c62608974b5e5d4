package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The validate command's scenarios double as acceptance tests for the whole
// merge and report path; every one of them must pass against the stubs.
func TestBuiltinScenariosAllPass(t *testing.T) {
	for _, sc := range builtinScenarios() {
		t.Run(sc.name, func(t *testing.T) {
			require.NoError(t, sc.run(context.Background()))
		})
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "****", maskKey("ab"))
	assert.Equal(t, "****6789", maskKey("0123456789"))
}
