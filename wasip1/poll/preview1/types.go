package preview1

import (
	"encoding/binary"

	"github.com/foxxorcat/wazero-sched/sched"
)

// eventType 是 subscription 和 event 共用的标签。
type eventType uint8

const (
	eventTypeClock eventType = iota
	eventTypeFdRead
	eventTypeFdWrite
)

func (t eventType) String() string {
	switch t {
	case eventTypeClock:
		return "clock"
	case eventTypeFdRead:
		return "fd_read"
	case eventTypeFdWrite:
		return "fd_write"
	}
	return "unknown"
}

// clockID 只支持单调时钟，其余按 WASI 的编号识别后拒绝。
type clockID uint32

const (
	clockRealtime clockID = iota
	clockMonotonic
	clockProcessCPUTime
	clockThreadCPUTime
)

// subclockflags 的 bit 0 表示 timeout 是绝对时间。
const subscriptionClockAbstime uint16 = 1 << 0

const (
	subscriptionLen = 48
	eventLen        = 32
)

// subscription 是 guest 内存中 48 字节 subscription 的解码结果。
//
//	0  userdata  u64
//	8  tag       u8
//	16 clock.id / fd.file_descriptor  u32
//	24 clock.timeout   u64
//	32 clock.precision u64
//	40 clock.flags     u16
type subscription struct {
	userdata  uint64
	tag       eventType
	fd        uint32
	clockID   clockID
	timeout   uint64
	precision uint64
	flags     uint16
}

func decodeSubscription(b []byte) subscription {
	s := subscription{
		userdata: binary.LittleEndian.Uint64(b[0:]),
		tag:      eventType(b[8]),
	}
	switch s.tag {
	case eventTypeClock:
		s.clockID = clockID(binary.LittleEndian.Uint32(b[16:]))
		s.timeout = binary.LittleEndian.Uint64(b[24:])
		s.precision = binary.LittleEndian.Uint64(b[32:])
		s.flags = binary.LittleEndian.Uint16(b[40:])
	case eventTypeFdRead, eventTypeFdWrite:
		s.fd = binary.LittleEndian.Uint32(b[16:])
	}
	return s
}

// event 是写回 guest 内存的 32 字节 event。
//
//	0  userdata u64
//	8  error    u16
//	10 type     u8
//	16 fd_readwrite.nbytes u64
//	24 fd_readwrite.flags  u16
type event struct {
	userdata uint64
	errno    Errno
	tag      eventType
	nbytes   uint64
	flags    sched.RwEventFlags
}

// encode 写满 b 的全部 32 字节，包括填充。
func (e event) encode(b []byte) {
	clear(b[:eventLen])
	binary.LittleEndian.PutUint64(b[0:], e.userdata)
	binary.LittleEndian.PutUint16(b[8:], uint16(e.errno))
	b[10] = byte(e.tag)
	if e.tag != eventTypeClock {
		binary.LittleEndian.PutUint64(b[16:], e.nbytes)
		binary.LittleEndian.PutUint16(b[24:], uint16(e.flags))
	}
}

// eventFromResult 把一个完成的订阅转换为 event。
func eventFromResult(userdata uint64, r sched.SubscriptionResult) event {
	switch r := r.(type) {
	case sched.ReadResult:
		return rwEvent(userdata, eventTypeFdRead, r.RwStatus)
	case sched.WriteResult:
		return rwEvent(userdata, eventTypeFdWrite, r.RwStatus)
	case sched.MonotonicClockResult:
		return event{userdata: userdata, tag: eventTypeClock}
	}
	panic("preview1: unknown subscription result")
}

func rwEvent(userdata uint64, tag eventType, status sched.RwStatus) event {
	if status.Err != nil {
		return event{userdata: userdata, tag: tag, errno: ToErrno(status.Err)}
	}
	return event{userdata: userdata, tag: tag, nbytes: status.Size, flags: status.Flags}
}
