package search

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/cellsearch/internal/lte"
)

func TestPipelineRun(t *testing.T) {
	const fc = 800e6

	tests := []struct {
		name    string
		script  script
		stage   Stage
		err     error
		visited []Stage
	}{
		{
			name:    "no SSS",
			script:  script{nid1: lte.NotFound, power: 3},
			stage:   StageRejected,
			err:     ErrNoSSS,
			visited: []Stage{StageSecondarySync},
		},
		{
			name:   "no MIB",
			script: script{nid1: 7, power: 3},
			stage:  StageRejected,
			err:    ErrNoMIB,
			visited: []Stage{
				StageSecondarySync, StageFineOffset, StageGridExtracted, StageGridCompensated, StageConfirmed,
			},
		},
		{
			name:   "confirmed",
			script: script{nid1: 7, mib: true, power: 3},
			stage:  StageConfirmed,
			visited: []Stage{
				StageSecondarySync, StageFineOffset, StageGridExtracted, StageGridCompensated, StageConfirmed,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &fakeKernel{peaks: map[float64][]script{fc: {tt.script}}}
			p := NewPipeline(k, DefaultSSSThreshold, nil)

			out := p.Run(lte.NewCell(fc, 0, 1, tt.script.power, 0), &lte.Capture{CenterFrequency: fc})
			require.Equal(t, tt.stage, out.Stage)
			require.Equal(t, tt.err == nil, out.Confirmed())

			if tt.err != nil {
				require.ErrorIs(t, out.Err, tt.err)

				var rejected *RejectedError
				require.True(t, errors.As(out.Err, &rejected))
				require.Equal(t, tt.visited[len(tt.visited)-1], rejected.Stage)
			} else {
				require.NoError(t, out.Err)
			}

			if diff := cmp.Diff(tt.visited, k.stages); diff != "" {
				t.Errorf("visited stages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPipelineRefinesOffset(t *testing.T) {
	const fc = 1.8e9
	k := &fakeKernel{peaks: map[float64][]script{
		fc: {{nid1: 100, mib: true, power: 2, offset: 10e3, fine: -1200, comp: 35}},
	}}

	out := NewPipeline(k, DefaultSSSThreshold, nil).Run(lte.NewCell(fc, 0, 2, 2, 10e3), &lte.Capture{CenterFrequency: fc})
	require.True(t, out.Confirmed())
	require.Equal(t, 10e3-1200+35, out.Cell.FrequencyOffset)

	id, ok := out.Cell.ID()
	require.True(t, ok)
	require.Equal(t, 302, id)
	require.Equal(t, 50, out.Cell.NRBDL)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "sss-resolved", StageSecondarySync.String())
	require.Equal(t, "confirmed", StageConfirmed.String())
	require.Equal(t, "unknown", Stage(42).String())
}
