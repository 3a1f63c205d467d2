package imagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/fastlay-project/fastlay/pkg/assembler"
	"github.com/fastlay-project/fastlay/pkg/imageutil"
)

// Conn is the part of an FTP session the source uses.
type Conn interface {
	NameList(dir string) ([]string, error)
	Retr(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	Delete(path string) error
	MakeDir(path string) error
	FileSize(path string) (int64, error)
	Quit() error
}

// Dialer opens a logged-in FTP session.
type Dialer func(ctx context.Context) (Conn, error)

type FTPConfig struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
	// Promoted photos live here as <code>.png.
	ProductsDir string
	// Manually corrected photos are uploaded here and promoted on first use.
	ManualDir string
	Retry     Retry
}

// FTP resolves photos from the manual upload directory first, promoting a hit into the
// products directory, and from the products directory otherwise. Every call uses its own session.
type FTP struct {
	cfg    FTPConfig
	dial   Dialer
	logger *slog.Logger
}

func NewFTP(cfg FTPConfig, logger *slog.Logger) *FTP {
	return NewFTPWithDialer(cfg, DialFTP(cfg), logger)
}

func NewFTPWithDialer(cfg FTPConfig, dial Dialer, logger *slog.Logger) *FTP {
	return &FTP{cfg: cfg, dial: dial, logger: logger}
}

// DialFTP returns a Dialer for the jlaffaye/ftp client.
func DialFTP(cfg FTPConfig) Dialer {
	addr := cfg.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "21")
	}
	return func(ctx context.Context) (Conn, error) {
		c, err := ftp.Dial(addr, ftp.DialWithTimeout(cfg.Timeout), ftp.DialWithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ftp %s: %w", addr, err)
		}
		if err := c.Login(cfg.User, cfg.Password); err != nil {
			c.Quit()
			return nil, backoff.Permanent(fmt.Errorf("failed to log in to ftp %s: %w", addr, err))
		}
		return serverConn{c}, nil
	}
}

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	return c.ServerConn.Retr(path)
}

func (s *FTP) Resolve(ctx context.Context, prodCode int) (assembler.Resolved, error) {
	conn, err := backoff.RetryWithData(func() (Conn, error) {
		return s.dial(ctx)
	}, s.cfg.Retry.backoff(ctx))
	if err != nil {
		return assembler.Resolved{}, err
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			s.logger.Debug("ftp quit failed", slog.Any("err", err))
		}
	}()

	logger := s.logger.With(slog.Int("prod_code", prodCode))

	names, err := conn.NameList(s.cfg.ManualDir)
	if err != nil {
		logger.Debug("failed to list manual directory", slog.String("dir", s.cfg.ManualDir), slog.Any("err", err))
	}
	if name, ok := MatchFile(names, prodCode); ok {
		return s.promote(ctx, conn, path.Join(s.cfg.ManualDir, name), prodCode, logger)
	}

	productPath := path.Join(s.cfg.ProductsDir, ProductFile(prodCode))
	if _, err := conn.FileSize(productPath); err != nil {
		if isUnavailable(err) {
			return assembler.Resolved{}, fmt.Errorf("%w: %s", ErrNotFound, productPath)
		}
		return assembler.Resolved{}, fmt.Errorf("failed to stat %s: %w", productPath, err)
	}
	data, err := s.download(ctx, conn, productPath)
	if err != nil {
		return assembler.Resolved{}, err
	}
	img, err := imageutil.DecodeBytes(data)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to decode %s: %w", productPath, err)
	}
	return assembler.Resolved{Image: img, Source: "ftp:" + productPath}, nil
}

// promote downloads a manual upload, trims its transparent border, stores it as the product
// photo and deletes the upload. A failed upload keeps the manual file for the next run.
func (s *FTP) promote(ctx context.Context, conn Conn, manualPath string, prodCode int, logger *slog.Logger) (assembler.Resolved, error) {
	data, err := s.download(ctx, conn, manualPath)
	if err != nil {
		return assembler.Resolved{}, err
	}
	img, err := imageutil.DecodeBytes(data)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to decode %s: %w", manualPath, err)
	}
	trimmed := imageutil.TrimTransparent(img)

	encoded, err := imageutil.EncodePNG(trimmed)
	if err != nil {
		return assembler.Resolved{}, fmt.Errorf("failed to encode %s: %w", manualPath, err)
	}
	productPath := path.Join(s.cfg.ProductsDir, ProductFile(prodCode))
	if err := s.upload(conn, productPath, encoded); err != nil {
		logger.Warn("failed to promote manual image", slog.String("path", manualPath), slog.Any("err", err))
		return assembler.Resolved{Image: trimmed, Source: "ftp:" + manualPath}, nil
	}
	if err := conn.Delete(manualPath); err != nil {
		logger.Warn("failed to delete promoted manual image", slog.String("path", manualPath), slog.Any("err", err))
	}
	logger.Info("manual image promoted", slog.String("from", manualPath), slog.String("to", productPath))
	return assembler.Resolved{Image: trimmed, Source: "ftp:" + manualPath}, nil
}

func (s *FTP) download(ctx context.Context, conn Conn, remote string) ([]byte, error) {
	return backoff.RetryWithData(func() ([]byte, error) {
		r, err := conn.Retr(remote)
		if err != nil {
			if isUnavailable(err) {
				return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, remote))
			}
			return nil, fmt.Errorf("failed to retrieve %s: %w", remote, err)
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", remote, err)
		}
		return data, nil
	}, s.cfg.Retry.backoff(ctx))
}

// upload stores data at remote, creating the missing directories on the way.
func (s *FTP) upload(conn Conn, remote string, data []byte) error {
	dir := path.Dir(remote)
	current := "/"
	if !strings.HasPrefix(dir, "/") {
		current = ""
	}
	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part == "" {
			continue
		}
		current = path.Join(current, part)
		// Existing directories answer with 550, which is fine here.
		conn.MakeDir(current)
	}
	if err := conn.Stor(remote, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store %s: %w", remote, err)
	}
	return nil
}

func isUnavailable(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable
}
