package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"mediaedge/config"
	"mediaedge/logger"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTP uploads to a remote directory over SSH. A connection is opened per
// upload.
type SFTP struct {
	opts config.SFTPOptions
	auth []ssh.AuthMethod
}

// NewSFTP validates the options and prepares the auth method.
func NewSFTP(opts config.SFTPOptions) (*SFTP, error) {
	if opts.Host == "" || opts.User == "" {
		return nil, errors.New("sftp: SFTP_HOST and SFTP_USER are required")
	}

	var auths []ssh.AuthMethod
	if opts.PrivateKey != "" {
		// try to decode as base64, fall back to raw
		keyBytes, err := base64.StdEncoding.DecodeString(opts.PrivateKey)
		if err != nil {
			keyBytes = []byte(opts.PrivateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	} else if opts.Password != "" {
		auths = append(auths, ssh.Password(opts.Password))
	} else {
		return nil, errors.New("sftp: no auth method provided; set SFTP_PASSWORD or SFTP_PRIVATE_KEY")
	}

	return &SFTP{opts: opts, auth: auths}, nil
}

func (p *SFTP) Name() string { return "sftp" }

// Upload writes reader to RootDir/key on the remote host.
func (p *SFTP) Upload(ctx context.Context, key, contentType string, reader io.Reader) error {
	clientConfig := &ssh.ClientConfig{
		User:            p.opts.User,
		Auth:            p.auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	addr := net.JoinHostPort(p.opts.Host, strconv.Itoa(p.opts.Port))

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)
	defer sshClient.Close()

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		return fmt.Errorf("create sftp client: %w", err)
	}
	defer sftpClient.Close()

	remotePath := path.Join(p.opts.RootDir, path.Clean("/"+key))
	dir := path.Dir(remotePath)
	if err := mkdirAllSFTP(sftpClient, dir); err != nil {
		return fmt.Errorf("ensure remote dir %s: %w", dir, err)
	}

	f, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("copy to remote file %s: %w", remotePath, err)
	}

	logger.Infof("Successfully uploaded '%s' to %s", remotePath, addr)
	return nil
}

// mkdirAllSFTP mimics os.MkdirAll for an SFTP server by creating each segment of the path.
func mkdirAllSFTP(client *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	parts := strings.Split(dir, "/")
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}

	for _, part := range parts {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		if _, err := client.Stat(cur); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("stat %s: %w", cur, err)
			}
			if err := client.Mkdir(cur); err != nil {
				return fmt.Errorf("mkdir %s: %w", cur, err)
			}
		}
	}
	return nil
}
