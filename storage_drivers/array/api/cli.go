// Copyright 2025 Arraykit Authors. All Rights Reserved.

package api

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/arraykit/arraykit/config"
	. "github.com/arraykit/arraykit/logging"
	"github.com/arraykit/arraykit/storage"
	drivers "github.com/arraykit/arraykit/storage_drivers"
	"github.com/arraykit/arraykit/utils/errors"
)

// The CLI dialect drives the array's interactive management shell:
//
//	request:  op -key value -key value
//	response: key=value lines, one block per record, blank-line separated,
//	          terminated by the shell prompt "<username>:/>"
//	errors:   a line starting with "Error:" followed by free-form text
//	prompts:  destructive commands may pause on a trailing "(y/n)"
//
// The shell is stateful and not concurrency-safe, so the session pool is
// bounded to a small number of sessions per endpoint.

const cliDialTimeout = 30 * time.Second

// errConfirmationRequired is an internal decode result: the shell is waiting
// for a yes/no answer before it will produce the terminal response.
var errConfirmationRequired = errors.New("interactive confirmation required")

var (
	cliNotFoundRegex      = regexp.MustCompile(`(?i)not found in this collection|does not exist|cannot be found`)
	cliAlreadyExistsRegex = regexp.MustCompile(`(?i)already exists`)
	cliBusyRegex          = regexp.MustCompile(`(?i)has dependent clones|is busy|IOs accessing the system`)
	cliInvalidRegex       = regexp.MustCompile(`(?i)invalid (argument|parameter)|out of range`)
	cliConfirmationRegex  = regexp.MustCompile(`\(y/n\)\s*$`)
)

// CLICodec encodes commands as shell command lines and decodes the
// semi-structured text the shell prints back.
type CLICodec struct{}

func NewCLICodec() *CLICodec { return &CLICodec{} }

func (c *CLICodec) Encode(cmd storage.Command) ([]byte, error) {
	if cmd.Op == "" {
		return nil, errors.InvalidArgumentError("command has no operation")
	}
	var b strings.Builder
	b.WriteString(cmd.Op)
	for _, p := range cmd.Params {
		b.WriteString(" -")
		b.WriteString(p.Key)
		b.WriteString(" ")
		b.WriteString(p.Value)
	}
	return []byte(b.String()), nil
}

func (c *CLICodec) Decode(cmd storage.Command, raw []byte) (*storage.Response, error) {
	text := strings.TrimSpace(string(raw))

	if cliConfirmationRegex.MatchString(text) {
		return nil, errConfirmationRequired
	}

	if errText, ok := cliErrorText(text); ok {
		switch {
		case cliNotFoundRegex.MatchString(errText):
			return nil, errors.NotFoundError(errText)
		case cliAlreadyExistsRegex.MatchString(errText):
			return nil, errors.AlreadyExistsError(errText)
		case cliBusyRegex.MatchString(errText):
			return nil, errors.BusyError(errText)
		case cliInvalidRegex.MatchString(errText):
			return nil, errors.InvalidArgumentError(errText)
		default:
			return nil, errors.RemoteError(errText)
		}
	}

	resp := &storage.Response{Raw: text}
	records := parseCLIRecords(text)

	switch cmd.Op {
	case storage.OpGetVolume, storage.OpListVolumes, storage.OpListDependents:
		for _, rec := range records {
			res, err := resourceFromRecord(rec)
			if err != nil {
				return nil, err
			}
			resp.Resources = append(resp.Resources, *res)
		}
		if cmd.Op == storage.OpGetVolume && len(resp.Resources) == 0 {
			return nil, errors.ProtocolViolationError("no record in %s response", cmd.Op)
		}
	case storage.OpCloneStatus:
		if len(records) != 1 {
			return nil, errors.ProtocolViolationError("expected one record in %s response", cmd.Op)
		}
		copyStatus, err := copyStatusFromRecord(records[0])
		if err != nil {
			return nil, err
		}
		resp.Copy = copyStatus
	case storage.OpGetPoolCapacity:
		if len(records) != 1 {
			return nil, errors.ProtocolViolationError("expected one record in %s response", cmd.Op)
		}
		capacity, err := capacityFromRecord(records[0])
		if err != nil {
			return nil, err
		}
		resp.Capacity = capacity
	}

	return resp, nil
}

// ConfirmationToken answers the shell's yes/no prompt.
func (c *CLICodec) ConfirmationToken() []byte { return []byte("y") }

// cliErrorText extracts the message of an "Error:" line, if any.
func cliErrorText(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Error:")), true
		}
	}
	return "", false
}

// parseCLIRecords splits blank-line-separated blocks of key=value lines.
func parseCLIRecords(text string) []map[string]string {
	var records []map[string]string
	current := map[string]string{}
	flush := func() {
		if len(current) > 0 {
			records = append(records, current)
			current = map[string]string{}
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue // banner or status chatter, not payload
		}
		current[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	flush()
	return records
}

func resourceFromRecord(rec map[string]string) (*storage.PhysicalResource, error) {
	name := rec["name"]
	if name == "" {
		return nil, errors.ProtocolViolationError("record without a name field")
	}
	res := &storage.PhysicalResource{
		Name:   name,
		Origin: rec["origin"],
		Thin:   rec["thin"] == "true",
	}
	if v := rec["size_gib"]; v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.ProtocolViolationError("bad size_gib %q for %s", v, name)
		}
		res.SizeGiB = size
	}
	if v := rec["dependents"]; v != "" {
		res.Dependents = strings.Split(v, ",")
	}
	if v := rec["created_at"]; v != "" {
		created, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.ProtocolViolationError("bad created_at %q for %s", v, name)
		}
		res.CreatedAt = created
	}
	return res, nil
}

func copyStatusFromRecord(rec map[string]string) (*storage.CopyStatus, error) {
	state := storage.CopyState(rec["state"])
	switch state {
	case storage.CopyStateRunning, storage.CopyStateComplete, storage.CopyStateFailed:
	default:
		return nil, errors.ProtocolViolationError("unknown copy state %q", rec["state"])
	}
	percent := 0
	if v := rec["percent"]; v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.ProtocolViolationError("bad percent %q", v)
		}
		percent = p
	}
	return &storage.CopyStatus{Name: rec["name"], State: state, PercentDone: percent}, nil
}

func capacityFromRecord(rec map[string]string) (*storage.PoolCapacity, error) {
	total, err := strconv.ParseInt(rec["total_gib"], 10, 64)
	if err != nil {
		return nil, errors.ProtocolViolationError("bad total_gib %q", rec["total_gib"])
	}
	free, err := strconv.ParseInt(rec["free_gib"], 10, 64)
	if err != nil {
		return nil, errors.ProtocolViolationError("bad free_gib %q", rec["free_gib"])
	}
	reserve, err := strconv.Atoi(rec["reserve_free_pct"])
	if err != nil {
		return nil, errors.ProtocolViolationError("bad reserve_free_pct %q", rec["reserve_free_pct"])
	}
	return &storage.PoolCapacity{
		Name:           rec["name"],
		TotalGiB:       total,
		FreeGiB:        free,
		ReserveFreePct: reserve,
	}, nil
}

// ///////////////////////////////////////////////////////////////////////////
// CLI session pool
// ///////////////////////////////////////////////////////////////////////////

// CLIPool keeps a bounded number of logged-in shell sessions per endpoint.
// Sessions are established lazily on first Acquire and recycled by
// Invalidate after any I/O error so a corrupted shell is never reused.
type CLIPool struct {
	limit int

	mu    sync.Mutex
	slots map[string]chan *cliConn

	dial func(drivers.Endpoint) (*cliConn, error) // test seam
}

func NewCLIPool(cfg *drivers.ArrayStorageDriverConfig) *CLIPool {
	return &CLIPool{
		limit: config.DefaultSessionsPerEndpoint,
		slots: make(map[string]chan *cliConn),
		dial:  dialCLI,
	}
}

// slotsFor returns the session slots for an endpoint, creating them on first
// use. A nil element is an empty slot to be filled by dialling.
func (p *CLIPool) slotsFor(endpoint drivers.Endpoint) chan *cliConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.slots[endpoint.Address()]
	if !ok {
		ch = make(chan *cliConn, p.limit)
		for i := 0; i < p.limit; i++ {
			ch <- nil
		}
		p.slots[endpoint.Address()] = ch
	}
	return ch
}

func (p *CLIPool) Acquire(ctx context.Context, endpoint drivers.Endpoint) (Conn, error) {
	ch := p.slotsFor(endpoint)
	select {
	case conn := <-ch:
		if conn != nil {
			return conn, nil
		}
		dialled, err := p.dial(endpoint)
		if err != nil {
			ch <- nil // hand the slot back
			return nil, err
		}
		return dialled, nil
	case <-ctx.Done():
		return nil, errors.WrapWithUnreachableError(ctx.Err(),
			"no free session for %s", endpoint.Address())
	}
}

func (p *CLIPool) Release(conn Conn) {
	cli, ok := conn.(*cliConn)
	if !ok {
		return
	}
	p.slotsFor(cli.endpoint) <- cli
}

func (p *CLIPool) Invalidate(conn Conn) {
	cli, ok := conn.(*cliConn)
	if !ok {
		return
	}
	_ = cli.Close()
	p.slotsFor(cli.endpoint) <- nil
}

// cliConn is one logged-in interactive shell. At most one command is in
// flight per session; the pool guarantees exclusive checkout.
type cliConn struct {
	endpoint drivers.Endpoint
	client   *ssh.Client
	stdin    io.WriteCloser
	stdout   *bufio.Reader
	prompt   string
}

// dialCLI opens the SSH channel, starts the shell, discards the welcome
// banner, and records the prompt sentinel used to detect response
// termination.
func dialCLI(endpoint drivers.Endpoint) (*cliConn, error) {
	sshConfig := &ssh.ClientConfig{
		User:            endpoint.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(endpoint.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cliDialTimeout,
	}

	client, err := ssh.Dial("tcp", endpoint.Address(), sshConfig)
	if err != nil {
		return nil, classifyNetError(err, endpoint)
	}

	session, err := client.NewSession()
	if err != nil {
		_ = client.Close()
		return nil, errors.WrapWithUnreachableError(err, "could not open session on %s", endpoint.Address())
	}

	modes := ssh.TerminalModes{ssh.ECHO: 0}
	if err = session.RequestPty("vt100", 80, 256, modes); err != nil {
		_ = client.Close()
		return nil, errors.WrapWithUnreachableError(err, "could not request pty on %s", endpoint.Address())
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		_ = client.Close()
		return nil, errors.WrapWithUnreachableError(err, "could not open stdin on %s", endpoint.Address())
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = client.Close()
		return nil, errors.WrapWithUnreachableError(err, "could not open stdout on %s", endpoint.Address())
	}

	if err = session.Shell(); err != nil {
		_ = client.Close()
		return nil, errors.WrapWithUnreachableError(err, "could not start shell on %s", endpoint.Address())
	}

	conn := &cliConn{
		endpoint: endpoint,
		client:   client,
		stdin:    stdin,
		stdout:   bufio.NewReader(stdout),
		prompt:   endpoint.Username + ":/>",
	}

	// The welcome banner ends at the first prompt.
	if _, err = conn.readUntilPrompt(context.Background()); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.WithField("endpoint", endpoint.Address()).Debug("CLI session established.")
	return conn, nil
}

func (c *cliConn) Endpoint() drivers.Endpoint { return c.endpoint }

func (c *cliConn) Send(ctx context.Context, wire []byte) ([]byte, error) {
	Logc(ctx).WithFields(log.Fields{
		"endpoint": c.endpoint.Address(),
		"command":  string(wire),
	}).Debug("Sending CLI command.")

	if _, err := c.stdin.Write(append(wire, '\n')); err != nil {
		return nil, errors.WrapWithUnreachableError(err, "write to %s failed", c.endpoint.Address())
	}
	return c.readUntilPrompt(ctx)
}

// readUntilPrompt accumulates shell output until a response terminator
// appears. The usual terminator is the prompt sentinel, which is stripped. A
// confirmation question is also terminal: the shell prints it and waits for
// an answer instead of a prompt, so the question itself is returned for
// decode to recognize.
func (c *cliConn) readUntilPrompt(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		for {
			b, err := c.stdout.ReadByte()
			if err != nil {
				done <- result{nil, errors.WrapWithUnreachableError(err,
					"read from %s failed", c.endpoint.Address())}
				return
			}
			buf.WriteByte(b)
			if bytes.HasSuffix(buf.Bytes(), []byte(c.prompt)) {
				done <- result{bytes.TrimSuffix(buf.Bytes(), []byte(c.prompt)), nil}
				return
			}
			if cliConfirmationRegex.Match(buf.Bytes()) {
				done <- result{buf.Bytes(), nil}
				return
			}
		}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		// The session is desynchronized; the caller must invalidate it.
		return nil, errors.TimeoutError("no prompt from %s before deadline", c.endpoint.Address())
	}
}

func (c *cliConn) Close() error {
	return c.client.Close()
}

// classifyNetError turns a dial failure into the transport taxonomy.
func classifyNetError(err error, endpoint drivers.Endpoint) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.TimeoutError("connection to %s timed out: %v", endpoint.Address(), err)
	}
	return errors.WrapWithUnreachableError(err, "could not connect to %s", endpoint.Address())
}
