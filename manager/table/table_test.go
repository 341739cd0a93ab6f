package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFile struct {
	closed bool
}

func (f *stubFile) Fd() (uintptr, bool)            { return 0, false }
func (f *stubFile) NumReadyBytes() (uint64, error) { return 0, nil }
func (f *stubFile) Readable() error                { return nil }
func (f *stubFile) Writable() error                { return nil }
func (f *stubFile) Close() error {
	f.closed = true
	return nil
}

func TestGetFile(t *testing.T) {
	tbl := New(nil)
	f := &stubFile{}
	fd := tbl.Push(f, CapRead|CapPollReadWrite)

	t.Run("granted rights resolve", func(t *testing.T) {
		ref, err := tbl.GetFile(fd, CapPollReadWrite)
		require.NoError(t, err)
		assert.Same(t, f, ref.File())
		assert.Equal(t, fd, ref.Fd())
		ref.Release()
	})

	t.Run("missing right is not capable", func(t *testing.T) {
		_, err := tbl.GetFile(fd, CapWrite)
		require.ErrorIs(t, err, ErrNotCapable)
		assert.Contains(t, err.Error(), "write")
	})

	t.Run("unknown handle is bad fd", func(t *testing.T) {
		_, err := tbl.GetFile(fd+100, CapRead)
		require.ErrorIs(t, err, ErrBadFd)
	})

	t.Run("held access makes the entry busy", func(t *testing.T) {
		ref, err := tbl.GetFile(fd, CapRead)
		require.NoError(t, err)

		_, err = tbl.GetFile(fd, CapRead)
		require.ErrorIs(t, err, ErrBusy)

		ref.Release()
		ref.Release() // second release is a no-op

		again, err := tbl.GetFile(fd, CapRead)
		require.NoError(t, err)
		again.Release()
	})
}

func TestPushSkipsInsertedHandles(t *testing.T) {
	tbl := New(nil)
	require.NoError(t, tbl.Insert(0, &stubFile{}, CapAll))
	require.NoError(t, tbl.Insert(1, &stubFile{}, CapAll))
	require.Error(t, tbl.Insert(1, &stubFile{}, CapAll))

	assert.Equal(t, uint32(2), tbl.Push(&stubFile{}, CapAll))
	assert.Equal(t, 3, tbl.Len())
}

func TestSetCapsOnlyNarrows(t *testing.T) {
	tbl := New(nil)
	fd := tbl.Push(&stubFile{}, CapRead|CapPollReadWrite)

	require.NoError(t, tbl.SetCaps(fd, CapRead))
	caps, ok := tbl.Caps(fd)
	require.True(t, ok)
	assert.Equal(t, CapRead, caps)

	err := tbl.SetCaps(fd, CapRead|CapPollReadWrite)
	require.ErrorIs(t, err, ErrNotCapable)

	_, err = tbl.GetFile(fd, CapPollReadWrite)
	require.ErrorIs(t, err, ErrNotCapable)

	require.ErrorIs(t, tbl.SetCaps(fd+1, CapRead), ErrBadFd)
}

func TestRemoveAndCloseRunOnClose(t *testing.T) {
	var closed []File
	tbl := New(func(f File) { closed = append(closed, f) })
	a, b := &stubFile{}, &stubFile{}
	fdA := tbl.Push(a, CapAll)
	tbl.Push(b, CapAll)

	tbl.Remove(fdA)
	require.Equal(t, []File{a}, closed)
	_, err := tbl.GetFile(fdA, CapRead)
	require.ErrorIs(t, err, ErrBadFd)

	tbl.Remove(fdA) // already gone
	require.Len(t, closed, 1)

	tbl.Close()
	assert.Equal(t, []File{a, b}, closed)
	assert.Zero(t, tbl.Len())
}

func TestCloseFile(t *testing.T) {
	f := &stubFile{}
	CloseFile(f)
	assert.True(t, f.closed)
}

func TestFileCapsString(t *testing.T) {
	assert.Equal(t, "none", FileCaps(0).String())
	assert.Equal(t, "read|poll_readwrite", (CapRead | CapPollReadWrite).String())
	assert.Equal(t, "write|0x40", (CapWrite | 0x40).String())
}
