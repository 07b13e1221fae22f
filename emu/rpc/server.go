package rpc

import (
	"image"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

// Emu is the subset of the emulator the server exposes remotely.
type Emu interface {
	Reset()
	Restart()
	SetPause(pause bool)
	Stop()

	StatusJSON() []byte
	Screenshot() *image.RGBA
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) Reset(_, _ *struct{}) error             { ep.emu.Reset(); return nil }
func (ep *emuProxy) Restart(_, _ *struct{}) error           { ep.emu.Restart(); return nil }
func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) Stop(_ *struct{}, _ *struct{}) error    { ep.emu.Stop(); return nil }

func (ep *emuProxy) Status(_ *struct{}, reply *[]byte) error {
	*reply = ep.emu.StatusJSON()
	return nil
}

func (ep *emuProxy) Screenshot(_ *struct{}, reply **image.RGBA) error {
	*reply = ep.emu.Screenshot()
	return nil
}

func (ep *emuProxy) IsReady(_ *struct{}, reply *bool) error {
	*reply = true
	return nil
}

type Server struct {
	io.Closer
}

func NewServer(port int, emu Emu) (*Server, error) {
	proxy := &emuProxy{emu: emu}
	if err := rpc.RegisterName("emu", proxy); err != nil {
		panic("failed to register RPC server: " + err.Error())
	}
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	go http.Serve(l, nil)
	return &Server{Closer: l}, nil
}
