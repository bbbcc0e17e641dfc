package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 60 * time.Second

	gracefulEnvKey     = "IS_GRACEFUL"
	gracefulListenerFD = 3
)

// GraceServer serves HTTP with graceful SIGTERM shutdown and SIGUSR2 restart:
// on restart the listener fd is passed to a re-exec'd child so no connection
// is dropped.
func GraceServer(addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	ln, err := listen(addr)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go handleSignals(srv, ln, done)

	err = srv.Serve(ln)
	<-done
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// listen reuses the inherited listener when running as a graceful child.
func listen(addr string) (net.Listener, error) {
	if os.Getenv(gracefulEnvKey) != "" {
		f := os.NewFile(gracefulListenerFD, "")
		ln, err := net.FileListener(f)
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func handleSignals(srv *http.Server, ln net.Listener, done chan struct{}) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range ch {
		switch sig {
		case syscall.SIGTERM:
			Sugar.Info("received SIGTERM, shutting down HTTP server")
			shutdown(srv, done)
			return
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, restarting HTTP server")
			pid, err := forkChild(ln)
			if err != nil {
				Sugar.Errorf("graceful restart failed: %v, continue serving", err)
				continue
			}
			Sugar.Infof("started replacement process pid=%d, closing old server", pid)
			shutdown(srv, done)
			return
		}
	}
}

func shutdown(srv *http.Server, done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	}
	close(done)
}

// forkChild re-execs the binary with the listener fd at slot 3.
func forkChild(ln net.Listener) (int, error) {
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is not *net.TCPListener")
	}
	f, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}

	env := []string{}
	for _, e := range os.Environ() {
		if e != gracefulEnvKey+"=1" {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnvKey+"=1")

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), f.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}
