package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_Builtin(t *testing.T) {
	scenarios, err := Builtin()
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestRender_OmitsFieldsPerOp(t *testing.T) {
	s := &Scenario{
		Name:        "render",
		Description: "render shape",
		Owner:       "oracle.near",
		Steps: []Step{
			{Op: OpGet, ID: "missing"},
			{Op: OpList, Limit: limit(0)},
		},
	}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	out, err := Render(s, result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"digest":"e535235cf91e02b035866ba820c770bbfa52612454fe2e775ee5208a5b16eb7b","events":0,"name":"render","owner":"oracle.near",`+
			`"trace":[{"found":false,"id":"missing","op":"get","outcome":"ok","seq":1},{"entries":[],"limit":0,"op":"list","outcome":"ok","seq":2}]}`,
		string(out))
}
