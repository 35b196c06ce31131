//go:build linux
// +build linux

package main

import (
	"bufio"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"

	"github.com/stormos/installer/lib/format"
	proto "github.com/stormos/installer/proto/installer"
)

type statusPage struct {
	mutex  sync.RWMutex
	events []proto.StageEvent
	result *proto.InstallResult
}

func startHttpServer(portNum uint, status *statusPage) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", portNum))
	if err != nil {
		return err
	}
	http.HandleFunc("/", status.statusHandler)
	go http.Serve(listener, nil)
	return nil
}

func (s *statusPage) addEvent(event proto.StageEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, event)
}

func (s *statusPage) setResult(result *proto.InstallResult) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.result = result
}

func (s *statusPage) statusHandler(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	writer := bufio.NewWriter(w)
	defer writer.Flush()
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	fmt.Fprintln(writer, "<title>StormOS installer status page</title>")
	fmt.Fprintln(writer, "<body>")
	fmt.Fprintln(writer, "<h1>StormOS installer status page</h1>")
	fmt.Fprintln(writer, `<a href="metrics/">Metrics</a><br>`)
	fmt.Fprintln(writer, "<table border=\"1\">")
	fmt.Fprintln(writer, "  <tr><th>Stage</th><th>Status</th><th>Message</th></tr>")
	for _, event := range s.events {
		status := "OK"
		if !event.Success {
			status = `<font color="red">FAILED</font>`
		}
		fmt.Fprintf(writer, "  <tr><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			event.Stage, status, html.EscapeString(event.Message))
	}
	fmt.Fprintln(writer, "</table>")
	if result := s.result; result != nil {
		fmt.Fprintf(writer, "Installation %s onto %s: %s (%s)<br>\n",
			result.RunId, result.Device, html.EscapeString(result.Message),
			format.Duration(result.Duration))
	} else {
		fmt.Fprintln(writer, "Installation in progress<br>")
	}
	fmt.Fprintln(writer, "</body>")
}
