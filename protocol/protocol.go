// Package protocol defines the JSON control protocol spoken over the
// daemon's unix socket.
package protocol

import (
	"encoding/json"
	"io"
)

func DefaultSockAddress() string {
	return "/var/run/facerec.sock"
}

func DefaultLockFile() string {
	return "/var/run/facerec.pid"
}

type Action string

const (
	// ActionStatus asks for loop health: fps, frames, uptime.
	ActionStatus Action = "STATUS"
	// ActionIdentity asks for the last recognized identity.
	ActionIdentity Action = "IDENTITY"
)

type Req struct {
	Action Action            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

type Res struct {
	Status Status            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

func ReadReq(r io.Reader) (*Req, error) {
	var req Req
	err := json.NewDecoder(r).Decode(&req)
	return &req, err
}

func ReadRes(r io.Reader) (*Res, error) {
	var res Res
	err := json.NewDecoder(r).Decode(&res)
	return &res, err
}

func WriteReq(w io.Writer, action Action) error {
	return json.NewEncoder(w).Encode(&Req{Action: action})
}

func WriteSuccessRes(w io.Writer, extras map[string]string) error {
	res := Res{
		Status: StatusSuccess,
		Extras: extras,
	}
	return json.NewEncoder(w).Encode(&res)
}

func WriteErrorRes(w io.Writer, err error) error {
	res := Res{
		Status: StatusError,
		Error:  err.Error(),
	}
	return json.NewEncoder(w).Encode(&res)
}
