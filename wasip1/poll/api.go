package wasi_poll

import (
	"github.com/foxxorcat/wazero-sched/wasip1"
	"github.com/foxxorcat/wazero-sched/wasip1/poll/preview1"
)

// Module 返回一个启用 poll_oneoff 的模块选项。
// 用户通过调用 wasip1.NewHost(wasi_poll.Module()) 来启用此模块。
func Module() wasip1.ModuleOption {
	return func(h *wasip1.Host) {
		h.AddImplementation(preview1.New())
	}
}
