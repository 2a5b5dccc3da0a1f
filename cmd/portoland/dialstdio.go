package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"portolan/sdk"

	"github.com/spf13/cobra"
)

// dial-stdio bridges stdio to the daemon's unix socket so remote
// clients can reach it over "ssh host portoland dial-stdio".
func dialStdioCmd() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:    "dial-stdio",
		Short:  "Proxy stdio to the portoland socket",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialStdio(cmd.Context(), socketPath, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", sdk.DefaultSocketPath(), "Path to the portoland Unix socket")
	return cmd
}

func runDialStdio(ctx context.Context, socketPath string, stdin io.Reader, stdout io.WriteCloser) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to socket %q: %w", socketPath, err)
	}
	defer conn.Close()

	inDone := make(chan error, 1)
	outDone := make(chan error, 1)

	go func() {
		_, copyErr := io.Copy(conn, stdin)
		// Signal EOF to the daemon so its response side can drain.
		if unixConn, ok := conn.(*net.UnixConn); ok {
			_ = unixConn.CloseWrite()
		}
		inDone <- copyErr
	}()

	go func() {
		_, copyErr := io.Copy(stdout, conn)
		_ = stdout.Close()
		outDone <- copyErr
	}()

	// The session ends when the daemon closes its side; a stdin error
	// ends it early.
	select {
	case err = <-inDone:
		if err != nil {
			return err
		}
		err = <-outDone
	case err = <-outDone:
	}
	return err
}
