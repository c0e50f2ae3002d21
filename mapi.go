package gomonetdb

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/crypto/ripemd160"
)

// mapiConn is a MAPI session on a TCP socket: blocking, one outstanding
// statement at a time. It implements serverConn for the cursor layer.
type mapiConn struct {
	cfg       *Config
	netConn   net.Conn
	replySize int
	connected bool
}

// hashPreference orders the salted-digest algorithms from most to least
// preferred; the first one the server offers wins.
var hashPreference = []string{"SHA512", "SHA256", "RIPEMD160", "SHA1", "MD5"}

// connectMapi dials the configured server, runs the challenge/response login
// and pins the reply size.
func connectMapi(ctx context.Context, cfg *Config) (*mapiConn, error) {
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	mc := &mapiConn{cfg: cfg, netConn: netConn, connected: true}
	if err = mc.login(ctx); err != nil {
		mc.Close()
		return nil, err
	}

	replySize := cfg.ReplySize
	if replySize <= 0 {
		replySize = defaultReplySize
	}
	// force the initial Xreply_size exchange regardless of the default
	mc.replySize = -1
	if err = mc.SetReplySize(replySize); err != nil {
		mc.Close()
		return nil, err
	}
	logger.WithField("host", cfg.Host).Debug("mapi session established")
	return mc, nil
}

// login performs the v9 challenge/response handshake, following redirects
// until the server accepts or maxRedirects is exhausted.
func (mc *mapiConn) login(ctx context.Context) error {
	for attempt := 0; attempt < maxRedirects; attempt++ {
		challenge, err := mc.getBlock()
		if err != nil {
			return err
		}
		response, err := challengeResponse(mc.cfg, string(challenge))
		if err != nil {
			return err
		}
		if err = mc.putBlock([]byte(response)); err != nil {
			return err
		}
		reply, err := mc.getBlock()
		if err != nil {
			return err
		}

		prompt := strings.TrimSpace(string(reply))
		switch {
		case prompt == "" || strings.HasPrefix(prompt, msgOK):
			return nil
		case strings.HasPrefix(prompt, msgError):
			return &MonetDBError{
				Number:  ErrCodeLoginFailed,
				Message: strings.TrimSpace(prompt[1:]),
			}
		case strings.HasPrefix(prompt, msgRedirect):
			redirect, _, _ := strings.Cut(prompt, "\n")
			if err = mc.followRedirect(ctx, redirect); err != nil {
				return err
			}
		default:
			return &MonetDBError{
				Number:      ErrCodeLoginFailed,
				Message:     "unexpected login reply: %v",
				MessageArgs: []interface{}{prompt},
			}
		}
	}
	return &MonetDBError{
		Number:      ErrCodeRedirectLimit,
		Message:     "%v consecutive login redirects, giving up",
		MessageArgs: []interface{}{maxRedirects},
	}
}

// followRedirect handles one "^mapi:..." login redirect. A merovingian
// redirect restarts the handshake on the same socket; a monetdb redirect
// redials the named server.
func (mc *mapiConn) followRedirect(ctx context.Context, redirect string) error {
	ref := strings.TrimPrefix(strings.TrimPrefix(redirect, msgRedirect), "mapi:")
	u, err := url.Parse(ref)
	if err != nil {
		return &MonetDBError{
			Number:      ErrCodeInvalidRedirect,
			Message:     "invalid login redirect: %v",
			MessageArgs: []interface{}{redirect},
		}
	}
	switch u.Scheme {
	case "merovingian":
		// the multiplexer proxies us onward and replays the challenge on
		// the same socket
		return nil
	case "monetdb":
		if host := u.Hostname(); host != "" {
			mc.cfg.Host = host
		}
		if port := u.Port(); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return &MonetDBError{
					Number:      ErrCodeInvalidRedirect,
					Message:     "invalid port in login redirect: %v",
					MessageArgs: []interface{}{redirect},
				}
			}
			mc.cfg.Port = p
		}
		if db := strings.Trim(u.Path, "/"); db != "" {
			mc.cfg.Database = db
		}
		mc.netConn.Close()
		dialer := net.Dialer{Timeout: mc.cfg.ConnectTimeout}
		addr := net.JoinHostPort(mc.cfg.Host, strconv.Itoa(mc.cfg.Port))
		netConn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		mc.netConn = netConn
		return nil
	default:
		return &MonetDBError{
			Number:      ErrCodeInvalidRedirect,
			Message:     "unsupported redirect scheme: %v",
			MessageArgs: []interface{}{u.Scheme},
		}
	}
}

// challengeResponse builds the login response for a v9 server challenge of
// the form "salt:identity:protocol:hashes:endianness:password_hash:". The
// password is first digested with the server-announced algorithm, then salted
// and digested again with the strongest algorithm both sides support.
func challengeResponse(cfg *Config, challenge string) (string, error) {
	parts := strings.Split(challenge, ":")
	if len(parts) < 6 {
		return "", &MonetDBError{
			Number:      ErrCodeLoginFailed,
			Message:     "challenge too short: %v",
			MessageArgs: []interface{}{challenge},
		}
	}
	salt, protocol := parts[0], parts[2]
	offered, pwAlgo := parts[3], parts[5]

	if protocol != mapiProtocolV9 {
		return "", &MonetDBError{
			Number:      ErrCodeUnsupportedProtocol,
			Message:     "unsupported mapi protocol version %v",
			MessageArgs: []interface{}{protocol},
		}
	}

	pwDigest, err := hexDigest(pwAlgo, cfg.Password)
	if err != nil {
		return "", err
	}

	algo, err := chooseHash(offered)
	if err != nil {
		return "", err
	}
	digest, err := hexDigest(algo, pwDigest+salt)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("BIG:%s:{%s}%s:%s:%s:",
		cfg.User, algo, digest, mapiLanguageSQL, cfg.Database), nil
}

// chooseHash picks the most preferred algorithm from the server's
// comma-separated offer.
func chooseHash(offered string) (string, error) {
	available := map[string]bool{}
	for _, name := range strings.Split(offered, ",") {
		available[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	for _, name := range hashPreference {
		if available[name] {
			return name, nil
		}
	}
	return "", &MonetDBError{
		Number:      ErrCodeNoUsableHash,
		Message:     "no supported hash algorithm in %v",
		MessageArgs: []interface{}{offered},
	}
}

func hexDigest(algo, data string) (string, error) {
	var h hash.Hash
	switch strings.ToUpper(algo) {
	case "SHA512":
		h = sha512.New()
	case "SHA256":
		h = sha256.New()
	case "RIPEMD160":
		h = ripemd160.New()
	case "SHA1":
		h = sha1.New()
	case "MD5":
		h = md5.New()
	default:
		return "", &MonetDBError{
			Number:      ErrCodeNoUsableHash,
			Message:     "unsupported hash algorithm %v",
			MessageArgs: []interface{}{algo},
		}
	}
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Execute sends one SQL statement and returns its raw response block.
func (mc *mapiConn) Execute(statement string) (string, error) {
	return mc.Cmd("s" + statement + ";")
}

// Cmd sends a raw command and returns the full response block verbatim.
// Server error lines stay in the block for the decoder to classify.
func (mc *mapiConn) Cmd(command string) (string, error) {
	if !mc.connected {
		return "", ErrInvalidConn
	}
	if err := mc.putBlock([]byte(command)); err != nil {
		return "", err
	}
	resp, err := mc.getBlock()
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// okCmd sends a control command whose only interesting outcome is success.
func (mc *mapiConn) okCmd(command string) error {
	resp, err := mc.Cmd(command)
	if err != nil {
		return err
	}
	return checkControlReply(command, resp)
}

// checkControlReply classifies the response block of a control command that
// carries no payload.
func checkControlReply(command, resp string) error {
	line, _, _ := strings.Cut(resp, "\n")
	line = strings.TrimSpace(line)
	switch {
	case line == "" || strings.HasPrefix(line, msgOK):
		return nil
	case strings.HasPrefix(line, msgError):
		return newServerError(line[1:])
	default:
		return &MonetDBError{
			Number:      ErrCodeUnknownState,
			Message:     "unexpected response to %v: %v",
			MessageArgs: []interface{}{command, line},
		}
	}
}

// ReplySize reports the page size the server currently applies to this
// session's result sets.
func (mc *mapiConn) ReplySize() int {
	return mc.replySize
}

// SetReplySize pins the server-side page size via Xreply_size.
func (mc *mapiConn) SetReplySize(n int) error {
	if n == mc.replySize {
		return nil
	}
	if err := mc.okCmd(fmt.Sprintf("Xreply_size %d", n)); err != nil {
		return err
	}
	mc.replySize = n
	return nil
}

// Close tears down the socket. Safe to call more than once.
func (mc *mapiConn) Close() error {
	if !mc.connected {
		return nil
	}
	mc.connected = false
	return mc.netConn.Close()
}

// putBlock writes one logical message, chunked into frames of at most
// mapiMaxPayload bytes. Each frame carries a 2-byte little-endian header
// holding length<<1, with bit 0 set on the final frame.
func (mc *mapiConn) putBlock(b []byte) error {
	var header [2]byte
	for {
		chunk := b
		last := uint16(1)
		if len(chunk) > mapiMaxPayload {
			chunk, last = b[:mapiMaxPayload], 0
		}
		binary.LittleEndian.PutUint16(header[:], uint16(len(chunk))<<1|last)
		if _, err := mc.netConn.Write(header[:]); err != nil {
			return err
		}
		if _, err := mc.netConn.Write(chunk); err != nil {
			return err
		}
		if last == 1 {
			return nil
		}
		b = b[len(chunk):]
	}
}

// getBlock reads frames until one carries the final-frame flag and returns
// the reassembled message.
func (mc *mapiConn) getBlock() ([]byte, error) {
	var header [2]byte
	var block []byte
	for {
		if _, err := io.ReadFull(mc.netConn, header[:]); err != nil {
			return nil, err
		}
		flag := binary.LittleEndian.Uint16(header[:])
		length := int(flag >> 1)
		if length > 0 {
			chunk := make([]byte, length)
			if _, err := io.ReadFull(mc.netConn, chunk); err != nil {
				return nil, err
			}
			block = append(block, chunk...)
		}
		if flag&1 == 1 {
			return block, nil
		}
	}
}
