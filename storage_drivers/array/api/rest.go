// Copyright 2025 Arraykit Authors. All Rights Reserved.

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	. "github.com/arraykit/arraykit/logging"
	"github.com/arraykit/arraykit/storage"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/utils/errors"
)

// The REST dialect posts one JSON-RPC style document per command:
//
//	request:  {"method": "<op>", "id": <n>, "params": {"key": "value", ...}}
//	response: {"result": {...}} on success, or
//	          {"error": {"class": "NotFound|AlreadyExists|Busy|InvalidArgument",
//	                     "message": "..."}} on failure
//
// Each request is self-contained, so the pool hands out stateless conns over
// one shared HTTP client and never needs to bound or recycle them.

const (
	restRequestTimeout = 30 * time.Second
	restContentType    = "application/json"
)

// RESTCodec encodes commands as JSON documents and classifies errors by the
// structured class field the array reports.
type RESTCodec struct{}

func NewRESTCodec() *RESTCodec { return &RESTCodec{} }

type restRequest struct {
	Method string            `json:"method"`
	ID     int               `json:"id"`
	Params map[string]string `json:"params"`
}

type restResource struct {
	Name       string   `json:"name"`
	SizeGiB    int64    `json:"size_gib"`
	Thin       bool     `json:"thin"`
	Origin     string   `json:"origin,omitempty"`
	Dependents []string `json:"dependents,omitempty"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

type restCapacity struct {
	Name           string `json:"name"`
	TotalGiB       int64  `json:"total_gib"`
	FreeGiB        int64  `json:"free_gib"`
	ReserveFreePct int    `json:"reserve_free_pct"`
}

type restCopy struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	PercentDone int    `json:"percent_done"`
}

type restResult struct {
	Resources []restResource `json:"resources,omitempty"`
	Capacity  *restCapacity  `json:"capacity,omitempty"`
	Copy      *restCopy      `json:"copy,omitempty"`
}

type restError struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}

type restResponse struct {
	Result *restResult `json:"result,omitempty"`
	Error  *restError  `json:"error,omitempty"`
}

func (c *RESTCodec) Encode(cmd storage.Command) ([]byte, error) {
	if cmd.Op == "" {
		return nil, errors.InvalidArgumentError("command has no operation")
	}
	params := make(map[string]string, len(cmd.Params))
	for _, p := range cmd.Params {
		params[p.Key] = p.Value
	}
	return json.Marshal(restRequest{Method: cmd.Op, ID: 1, Params: params})
}

func (c *RESTCodec) Decode(cmd storage.Command, raw []byte) (*storage.Response, error) {
	var decoded restResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.ProtocolViolationError("unparseable response for %s: %v", cmd.Op, err)
	}

	if decoded.Error != nil {
		msg := decoded.Error.Message
		switch decoded.Error.Class {
		case "NotFound":
			return nil, errors.NotFoundError(msg)
		case "AlreadyExists":
			return nil, errors.AlreadyExistsError(msg)
		case "Busy":
			return nil, errors.BusyError(msg)
		case "InvalidArgument":
			return nil, errors.InvalidArgumentError(msg)
		default:
			return nil, errors.RemoteError("%s: %s", decoded.Error.Class, msg)
		}
	}

	resp := &storage.Response{Raw: string(raw)}
	if decoded.Result == nil {
		return resp, nil
	}

	for _, r := range decoded.Result.Resources {
		res := storage.PhysicalResource{
			Name:       r.Name,
			SizeGiB:    r.SizeGiB,
			Thin:       r.Thin,
			Origin:     r.Origin,
			Dependents: r.Dependents,
		}
		if r.CreatedAt != "" {
			created, err := time.Parse(time.RFC3339, r.CreatedAt)
			if err != nil {
				return nil, errors.ProtocolViolationError("bad created_at %q for %s", r.CreatedAt, r.Name)
			}
			res.CreatedAt = created
		}
		resp.Resources = append(resp.Resources, res)
	}
	if decoded.Result.Capacity != nil {
		resp.Capacity = &storage.PoolCapacity{
			Name:           decoded.Result.Capacity.Name,
			TotalGiB:       decoded.Result.Capacity.TotalGiB,
			FreeGiB:        decoded.Result.Capacity.FreeGiB,
			ReserveFreePct: decoded.Result.Capacity.ReserveFreePct,
		}
	}
	if decoded.Result.Copy != nil {
		state := storage.CopyState(decoded.Result.Copy.State)
		switch state {
		case storage.CopyStateRunning, storage.CopyStateComplete, storage.CopyStateFailed:
		default:
			return nil, errors.ProtocolViolationError("unknown copy state %q", decoded.Result.Copy.State)
		}
		resp.Copy = &storage.CopyStatus{
			Name:        decoded.Result.Copy.Name,
			State:       state,
			PercentDone: decoded.Result.Copy.PercentDone,
		}
	}

	if cmd.Op == storage.OpGetVolume && len(resp.Resources) == 0 {
		return nil, errors.ProtocolViolationError("no resource in %s response", cmd.Op)
	}
	return resp, nil
}

// ///////////////////////////////////////////////////////////////////////////
// REST session pool
// ///////////////////////////////////////////////////////////////////////////

// RESTPool hands out stateless conns sharing one HTTP client. Release and
// Invalidate are no-ops because there is no per-conn state to corrupt.
type RESTPool struct {
	httpClient *http.Client
}

func NewRESTPool(cfg *drivers.ArrayStorageDriverConfig) *RESTPool {
	tr := &http.Transport{
		// Array controllers routinely present self-signed management certs.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &RESTPool{
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   restRequestTimeout,
		},
	}
}

func (p *RESTPool) Acquire(_ context.Context, endpoint drivers.Endpoint) (Conn, error) {
	return &restConn{endpoint: endpoint, httpClient: p.httpClient}, nil
}

func (p *RESTPool) Release(Conn)    {}
func (p *RESTPool) Invalidate(Conn) {}

type restConn struct {
	endpoint   drivers.Endpoint
	httpClient *http.Client
}

func (c *restConn) Endpoint() drivers.Endpoint { return c.endpoint }

func (c *restConn) Send(ctx context.Context, wire []byte) ([]byte, error) {
	url := fmt.Sprintf("https://%s/api/v1/commands", c.endpoint.Address())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(wire))
	if err != nil {
		return nil, errors.WrapWithUnreachableError(err, "could not build request for %s", url)
	}
	req.Header.Set("Content-Type", restContentType)
	req.SetBasicAuth(c.endpoint.Username, c.endpoint.Password)

	Logc(ctx).WithFields(log.Fields{
		"endpoint": c.endpoint.Address(),
		"bytes":    len(wire),
	}).Debug("Sending REST command.")

	response, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.TimeoutError("request to %s timed out: %v", c.endpoint.Address(), err)
		}
		return nil, errors.WrapWithUnreachableError(err, "request to %s failed", c.endpoint.Address())
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, errors.WrapWithUnreachableError(err, "could not read response from %s", c.endpoint.Address())
	}

	// 5xx without a decodable body usually means the management service is
	// restarting; that is a transport failure, not an answer.
	if response.StatusCode >= 500 && !json.Valid(body) {
		return nil, errors.UnreachableError("%s returned status %s", c.endpoint.Address(), response.Status)
	}

	return body, nil
}

func (c *restConn) Close() error { return nil }
