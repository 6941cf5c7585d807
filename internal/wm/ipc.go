package wm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// i3-ipc framing used by sway: magic, payload length, message type, payload.
// Integers are in host byte order.
const (
	ipcMagic      = "i3-ipc"
	ipcHeaderSize = len(ipcMagic) + 8

	ipcSubscribe     uint32 = 2
	ipcGetOutputs    uint32 = 3
	ipcGetWorkspaces uint32 = 1

	ipcEventFlag   uint32 = 1 << 31
	ipcEventOutput        = ipcEventFlag | 1

	maxIPCPayload = 16 << 20
)

func writeIPC(w io.Writer, typ uint32, payload []byte) error {
	buf := make([]byte, ipcHeaderSize, ipcHeaderSize+len(payload))
	copy(buf, ipcMagic)
	binary.NativeEndian.PutUint32(buf[len(ipcMagic):], uint32(len(payload)))
	binary.NativeEndian.PutUint32(buf[len(ipcMagic)+4:], typ)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}

func readIPC(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, ipcHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(header[:len(ipcMagic)], []byte(ipcMagic)) {
		return 0, nil, fmt.Errorf("invalid ipc magic %q", header[:len(ipcMagic)])
	}
	size := binary.NativeEndian.Uint32(header[len(ipcMagic):])
	typ := binary.NativeEndian.Uint32(header[len(ipcMagic)+4:])
	if size > maxIPCPayload {
		return 0, nil, fmt.Errorf("ipc payload too large: %d bytes", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return typ, payload, nil
}

func dialUnix(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return conn, nil
}

// closeOnDone closes conn when ctx ends so blocked reads return.
// The returned func stops the watcher.
func closeOnDone(ctx context.Context, conn net.Conn) func() {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	return func() { close(stop) }
}
