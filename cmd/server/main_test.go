package main

import (
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaitForStopReturnsListenerError(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	srv := &http.Server{Addr: taken.Addr().String(), Handler: http.NotFoundHandler()}
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- listenAndServe(srv)
	}()

	err = waitForStop(listenErr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.ListenAndServe")
}

func TestWaitForStopOnCleanListenerExit(t *testing.T) {
	listenErr := make(chan error, 1)
	listenErr <- nil
	require.Error(t, waitForStop(listenErr))

	listenErr <- errors.New("boom")
	require.EqualError(t, waitForStop(listenErr), "boom")
}
