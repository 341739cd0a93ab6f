package preview1

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/foxxorcat/wazero-sched/wasip1"
)

// --- wasi_snapshot_preview1.poll_oneoff implementation ---

type wasiPoll struct{}

func New() wasip1.Implementation {
	return &wasiPoll{}
}

func (i *wasiPoll) Name() string { return "poll_oneoff" }

func (i *wasiPoll) Instantiate(_ context.Context, h *wasip1.Host, builder wazero.HostModuleBuilder) error {
	handler := newPollImpl(h)
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(handler.PollOneoff),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{api.ValueTypeI32}).
		WithParameterNames("in", "out", "nsubscriptions", "result.nevents").
		WithResultNames("errno").
		Export(i.Name())
	return nil
}
