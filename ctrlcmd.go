// FILE: lixenwraith/tvconfig/ctrlcmd.go
package tvconfig

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// CtrlCmd wire constants
const (
	ctrlCmdEnumService uint32 = 1021
	ctrlCmdSuccess     uint32 = 1
	ctrlCmdHeaderSize         = 8
	ctrlCmdMaxPayload         = 64 << 20

	edcbNamedPipePath = `\\.\pipe\EpgTimerSrvNoWaitPipe`
)

// ctrlCmdClient speaks the EDCB CtrlCmd framing over TCP or the local named pipe.
type ctrlCmdClient struct {
	host    string
	port    int
	timeout time.Duration
}

// NewEDCBClient is the default EDCBDialer.
func NewEDCBClient(host string, port int, timeout time.Duration) EDCBClient {
	return &ctrlCmdClient{host: host, port: port, timeout: timeout}
}

// EnumService sends the enumerate-services command and returns the service count.
func (c *ctrlCmdClient) EnumService(ctx context.Context) (int, error) {
	conn, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	payload, err := ctrlCmdExchange(conn, ctrlCmdEnumService, nil)
	if err != nil {
		return 0, err
	}
	if len(payload) < 8 {
		return 0, errors.Newf("enum service payload too short: %d bytes", len(payload))
	}
	// payload is a serialized vector: total size, element count, elements
	return int(binary.LittleEndian.Uint32(payload[4:8])), nil
}

func (c *ctrlCmdClient) open(ctx context.Context) (io.ReadWriteCloser, error) {
	if c.host == EDCBNamedPipeHost {
		if runtime.GOOS != "windows" {
			return nil, errors.New("EDCB named pipe is only available on Windows")
		}
		f, err := os.OpenFile(edcbNamedPipePath, os.O_RDWR, 0)
		if err != nil {
			return nil, errors.Wrap(err, "open EDCB named pipe")
		}
		return f, nil
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(c.host, strconv.Itoa(c.port)))
	if err != nil {
		return nil, errors.Wrap(err, "dial EDCB")
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "set EDCB deadline")
	}
	return conn, nil
}

// ctrlCmdExchange writes one request frame and reads the response payload.
func ctrlCmdExchange(rw io.ReadWriter, cmd uint32, body []byte) ([]byte, error) {
	req := make([]byte, ctrlCmdHeaderSize+len(body))
	binary.LittleEndian.PutUint32(req[0:4], cmd)
	binary.LittleEndian.PutUint32(req[4:8], uint32(len(body)))
	copy(req[ctrlCmdHeaderSize:], body)
	if _, err := rw.Write(req); err != nil {
		return nil, errors.Wrap(err, "write CtrlCmd request")
	}

	header := make([]byte, ctrlCmdHeaderSize)
	if _, err := io.ReadFull(rw, header); err != nil {
		return nil, errors.Wrap(err, "read CtrlCmd header")
	}
	code := binary.LittleEndian.Uint32(header[0:4])
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > ctrlCmdMaxPayload {
		return nil, errors.Newf("CtrlCmd payload too large: %d bytes", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(rw, payload); err != nil {
		return nil, errors.Wrap(err, "read CtrlCmd payload")
	}
	if code != ctrlCmdSuccess {
		return nil, errors.Newf("CtrlCmd %d failed with result code %d", cmd, code)
	}
	return payload, nil
}
